package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

const (
	cartorioCollection   = "cartorios"
	tenantUserCollection = "tenant_users"
	loginTokenCollection = "login_tokens"
)

// CartorioRepository persists cartorios in MongoDB.
type CartorioRepository struct {
	coll *mongo.Collection
}

func NewCartorioRepository(db *mongo.Database) *CartorioRepository {
	return &CartorioRepository{coll: db.Collection(cartorioCollection)}
}

func (r *CartorioRepository) Create(ctx context.Context, c *domain.Cartorio) (*domain.Cartorio, error) {
	doc := *c
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrCartorioExists
		}
		return nil, fmt.Errorf("insert cartorio: %w", err)
	}
	return &doc, nil
}

func (r *CartorioRepository) FindByID(ctx context.Context, id string) (*domain.Cartorio, error) {
	var c domain.Cartorio
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrCartorioNotFound
		}
		return nil, fmt.Errorf("find cartorio: %w", err)
	}
	return &c, nil
}

func (r *CartorioRepository) List(ctx context.Context) ([]*domain.Cartorio, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list cartorios: %w", err)
	}
	var out []*domain.Cartorio
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode cartorios: %w", err)
	}
	return out, nil
}

func (r *CartorioRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"ativo": active}})
	if err != nil {
		return fmt.Errorf("set cartorio active: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCartorioNotFound
	}
	return nil
}

// TenantUserRepository persists tenant users in MongoDB.
type TenantUserRepository struct {
	coll *mongo.Collection
}

func NewTenantUserRepository(db *mongo.Database) *TenantUserRepository {
	return &TenantUserRepository{coll: db.Collection(tenantUserCollection)}
}

func (r *TenantUserRepository) Create(ctx context.Context, u *domain.TenantUser) (*domain.TenantUser, error) {
	doc := *u
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert tenant user: %w", err)
	}
	return &doc, nil
}

func (r *TenantUserRepository) FindByUsername(ctx context.Context, username string) (*domain.TenantUser, error) {
	var u domain.TenantUser
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find tenant user: %w", err)
	}
	return &u, nil
}

func (r *TenantUserRepository) FindByID(ctx context.Context, id string) (*domain.TenantUser, error) {
	var u domain.TenantUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find tenant user: %w", err)
	}
	return &u, nil
}

// LoginTokenRepository persists cartorio login tokens in MongoDB.
type LoginTokenRepository struct {
	coll *mongo.Collection
}

func NewLoginTokenRepository(db *mongo.Database) *LoginTokenRepository {
	return &LoginTokenRepository{coll: db.Collection(loginTokenCollection)}
}

func (r *LoginTokenRepository) Create(ctx context.Context, t *domain.LoginToken) (*domain.LoginToken, error) {
	doc := *t
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrTokenExists
		}
		return nil, fmt.Errorf("insert login token: %w", err)
	}
	return &doc, nil
}

func (r *LoginTokenRepository) FindByToken(ctx context.Context, token string) (*domain.LoginToken, error) {
	var t domain.LoginToken
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrLoginTokenNotFound
		}
		return nil, fmt.Errorf("find login token: %w", err)
	}
	return &t, nil
}

func (r *LoginTokenRepository) ListByCartorio(ctx context.Context, cartorioID string) ([]*domain.LoginToken, error) {
	cur, err := r.coll.Find(ctx, bson.M{"cartorio_id": cartorioID})
	if err != nil {
		return nil, fmt.Errorf("list login tokens: %w", err)
	}
	var out []*domain.LoginToken
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode login tokens: %w", err)
	}
	return out, nil
}

func (r *LoginTokenRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"ativo": active}})
	if err != nil {
		return fmt.Errorf("set login token active: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrLoginTokenNotFound
	}
	return nil
}
