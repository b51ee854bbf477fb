package ports

import (
	"context"
	"time"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// CompletionEvent is one completion toggle flowing through the dispatcher.
type CompletionEvent struct {
	CartorioID    string
	UserID        string
	VideoLessonID string
	Completed     bool
	Timestamp     time.Time
}

// ProgressSummary groups per-product and per-system completion percentages
// for one tenant user.
type ProgressSummary struct {
	Products []*domain.ProductProgress `json:"products"`
	Systems  []*domain.SystemProgress  `json:"systems"`
}

// ProgressService processes completion events and computes summaries.
type ProgressService interface {
	Process(ctx context.Context, ev CompletionEvent) error
	Summary(ctx context.Context, cartorioID, userID string) (*ProgressSummary, error)
}
