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
	systemCollection  = "systems"
	productCollection = "products"
	lessonCollection  = "video_lessons"
	trilhaCollection  = "trilhas"
)

var byOrdem = options.Find().SetSort(bson.D{{Key: "ordem", Value: 1}, {Key: "_id", Value: 1}})

// CatalogRepository persists the catalog hierarchy in MongoDB.
type CatalogRepository struct {
	systems  *mongo.Collection
	products *mongo.Collection
	lessons  *mongo.Collection
	trilhas  *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		systems:  db.Collection(systemCollection),
		products: db.Collection(productCollection),
		lessons:  db.Collection(lessonCollection),
		trilhas:  db.Collection(trilhaCollection),
	}
}

func (r *CatalogRepository) CreateSystem(ctx context.Context, s *domain.System) (*domain.System, error) {
	doc := *s
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.systems.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert system: %w", err)
	}
	return &doc, nil
}

func (r *CatalogRepository) ListSystems(ctx context.Context) ([]*domain.System, error) {
	cur, err := r.systems.Find(ctx, bson.M{}, byOrdem)
	if err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}
	var out []*domain.System
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode systems: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) DeleteSystem(ctx context.Context, id string) error {
	res, err := r.systems.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete system: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSystemNotFound
	}
	return nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	doc := *p
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &doc, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	cur, err := r.products.Find(ctx, bson.M{}, byOrdem)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var out []*domain.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) ListProductsBySystem(ctx context.Context, systemID string) ([]*domain.Product, error) {
	cur, err := r.products.Find(ctx, bson.M{"system_id": systemID}, byOrdem)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var out []*domain.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *CatalogRepository) CreateLesson(ctx context.Context, l *domain.VideoLesson) (*domain.VideoLesson, error) {
	doc := *l
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.lessons.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert lesson: %w", err)
	}
	return &doc, nil
}

func (r *CatalogRepository) FindLesson(ctx context.Context, id string) (*domain.VideoLesson, error) {
	var l domain.VideoLesson
	if err := r.lessons.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrLessonNotFound
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &l, nil
}

func (r *CatalogRepository) ListLessons(ctx context.Context) ([]*domain.VideoLesson, error) {
	cur, err := r.lessons.Find(ctx, bson.M{}, byOrdem)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	var out []*domain.VideoLesson
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) ListLessonsByProduct(ctx context.Context, productID string) ([]*domain.VideoLesson, error) {
	cur, err := r.lessons.Find(ctx, bson.M{"product_id": productID}, byOrdem)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	var out []*domain.VideoLesson
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) DeleteLesson(ctx context.Context, id string) error {
	res, err := r.lessons.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}

func (r *CatalogRepository) CreateTrilha(ctx context.Context, t *domain.Trilha) (*domain.Trilha, error) {
	doc := *t
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.trilhas.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert trilha: %w", err)
	}
	return &doc, nil
}

func (r *CatalogRepository) ListTrilhas(ctx context.Context) ([]*domain.Trilha, error) {
	cur, err := r.trilhas.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list trilhas: %w", err)
	}
	var out []*domain.Trilha
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode trilhas: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) DeleteTrilha(ctx context.Context, id string) error {
	res, err := r.trilhas.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete trilha: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTrilhaNotFound
	}
	return nil
}
