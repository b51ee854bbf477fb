package ports

import (
	"context"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// ProgressRepository persists per-lesson completion records.
//
// Upsert keys on (cartorio_id, user_id, video_lesson_id) and must never
// produce a second record for the same key.
type ProgressRepository interface {
	Upsert(ctx context.Context, rec *domain.ProgressRecord) (*domain.ProgressRecord, error)
	ListByUser(ctx context.Context, cartorioID, userID string) ([]*domain.ProgressRecord, error)
	InsertActivity(ctx context.Context, ev *domain.ActivityEvent) error
}
