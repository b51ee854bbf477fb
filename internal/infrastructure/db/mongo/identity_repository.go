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
	identityCollection = "backend_identities"
	adminCollection    = "admin_roster"
)

// IdentityRepository persists backend auth principals in MongoDB.
type IdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{coll: db.Collection(identityCollection)}
}

func (r *IdentityRepository) Create(ctx context.Context, id *domain.BackendIdentity) (*domain.BackendIdentity, error) {
	doc := *id
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return &doc, nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.BackendIdentity, error) {
	var id domain.BackendIdentity
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&id); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &id, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, identityID string) (*domain.BackendIdentity, error) {
	var id domain.BackendIdentity
	if err := r.coll.FindOne(ctx, bson.M{"_id": identityID}).Decode(&id); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &id, nil
}

// FindOrCreateForTenantUser returns the 1:1 identity for a tenant user,
// creating it atomically on first login. The unique index on tenant_user_id
// makes concurrent first logins converge on a single document.
func (r *IdentityRepository) FindOrCreateForTenantUser(ctx context.Context, id *domain.BackendIdentity) (*domain.BackendIdentity, error) {
	filter := bson.M{"tenant_user_id": id.TenantUserID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":            primitive.NewObjectID().Hex(),
			"kind":           id.Kind,
			"email":          id.Email,
			"tenant_user_id": id.TenantUserID,
			"created_at":     id.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out domain.BackendIdentity
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("find-or-create identity: %w", err)
	}
	return &out, nil
}

// AdminRepository persists the administrator roster in MongoDB.
type AdminRepository struct {
	coll *mongo.Collection
}

func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{coll: db.Collection(adminCollection)}
}

func (r *AdminRepository) Create(ctx context.Context, a *domain.AdminProfile) (*domain.AdminProfile, error) {
	doc := *a
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAdminExists
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return &doc, nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*domain.AdminProfile, error) {
	var a domain.AdminProfile
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAdminNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &a, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]*domain.AdminProfile, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	var out []*domain.AdminProfile
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode admins: %w", err)
	}
	return out, nil
}

func (r *AdminRepository) Delete(ctx context.Context, email string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAdminNotFound
	}
	return nil
}
