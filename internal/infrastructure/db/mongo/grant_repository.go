package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

const grantCollection = "access_grants"

// GrantRepository persists tenant access grants in MongoDB.
type GrantRepository struct {
	coll *mongo.Collection
}

func NewGrantRepository(db *mongo.Database) *GrantRepository {
	return &GrantRepository{coll: db.Collection(grantCollection)}
}

func (r *GrantRepository) Create(ctx context.Context, g *domain.AccessGrant) (*domain.AccessGrant, error) {
	doc := *g
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}
	return &doc, nil
}

func (r *GrantRepository) ListActiveByCartorio(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error) {
	return r.list(ctx, bson.M{"cartorio_id": cartorioID, "active": true})
}

func (r *GrantRepository) ListByCartorio(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error) {
	return r.list(ctx, bson.M{"cartorio_id": cartorioID})
}

func (r *GrantRepository) list(ctx context.Context, filter bson.M) ([]*domain.AccessGrant, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	var out []*domain.AccessGrant
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode grants: %w", err)
	}
	return out, nil
}

func (r *GrantRepository) Revoke(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrGrantNotFound
	}
	return nil
}
