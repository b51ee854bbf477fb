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
	progressCollection = "progress_records"
	activityCollection = "activity_events"
)

// ProgressRepository persists completion records in MongoDB.
type ProgressRepository struct {
	progress *mongo.Collection
	activity *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{
		progress: db.Collection(progressCollection),
		activity: db.Collection(activityCollection),
	}
}

// Upsert writes the completion state keyed on (cartorio, user, lesson). The
// unique compound index guarantees a single record per key even under
// concurrent writes.
func (r *ProgressRepository) Upsert(ctx context.Context, rec *domain.ProgressRecord) (*domain.ProgressRecord, error) {
	filter := bson.M{
		"cartorio_id":     rec.CartorioID,
		"user_id":         rec.UserID,
		"video_lesson_id": rec.VideoLessonID,
	}
	set := bson.M{
		"completed":  rec.Completed,
		"updated_at": rec.UpdatedAt,
	}
	if rec.Completed {
		set["completed_at"] = rec.CompletedAt
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":             primitive.NewObjectID().Hex(),
			"cartorio_id":     rec.CartorioID,
			"user_id":         rec.UserID,
			"video_lesson_id": rec.VideoLessonID,
		},
	}
	if !rec.Completed {
		update["$unset"] = bson.M{"completed_at": ""}
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out domain.ProgressRecord
	if err := r.progress.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	return &out, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, cartorioID, userID string) ([]*domain.ProgressRecord, error) {
	cur, err := r.progress.Find(ctx, bson.M{"cartorio_id": cartorioID, "user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	var out []*domain.ProgressRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return out, nil
}

func (r *ProgressRepository) InsertActivity(ctx context.Context, ev *domain.ActivityEvent) error {
	doc := *ev
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.activity.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity event: %w", err)
	}
	return nil
}
