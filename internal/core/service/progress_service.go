package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// CompletionDedup abstracts the idempotency store (Redis) for completion
// events.
type CompletionDedup interface {
	IsDuplicate(ctx context.Context, cartorioID, userID, lessonID string, completed bool) (bool, error)
	Mark(ctx context.Context, cartorioID, userID, lessonID string, completed bool) error
}

// ProgressService processes completion toggles and computes per-product and
// per-system completion percentages.
type ProgressService struct {
	progress ports.ProgressRepository
	catalog  ports.CatalogRepository
	dedup    CompletionDedup
	now      func() time.Time
	log      zerolog.Logger
}

func NewProgressService(progress ports.ProgressRepository, catalog ports.CatalogRepository, dedup CompletionDedup, log zerolog.Logger) *ProgressService {
	return &ProgressService{progress: progress, catalog: catalog, dedup: dedup, now: time.Now, log: log}
}

// Process validates, deduplicates, and persists a single completion event.
// Re-marking an already-completed lesson is absorbed by the upsert, so the
// record stays unique per (cartorio, user, lesson).
func (s *ProgressService) Process(ctx context.Context, ev ports.CompletionEvent) error {
	if ev.CartorioID == "" || ev.UserID == "" || ev.VideoLessonID == "" {
		return domain.ErrInvalidInput
	}

	// 1. Idempotency check — silently skip rapid duplicates.
	isDup, err := s.dedup.IsDuplicate(ctx, ev.CartorioID, ev.UserID, ev.VideoLessonID, ev.Completed)
	if err != nil {
		s.log.Warn().Err(err).Str("lesson", ev.VideoLessonID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		s.log.Debug().Str("lesson", ev.VideoLessonID).Bool("completed", ev.Completed).Msg("duplicate completion event skipped")
		return nil
	}

	// 2. The lesson must exist in the catalog.
	if _, err := s.catalog.FindLesson(ctx, ev.VideoLessonID); err != nil {
		if errors.Is(err, domain.ErrLessonNotFound) {
			return fmt.Errorf("process completion: %w", err)
		}
		return fmt.Errorf("process completion: find lesson: %w", err)
	}

	if markErr := s.dedup.Mark(ctx, ev.CartorioID, ev.UserID, ev.VideoLessonID, ev.Completed); markErr != nil {
		s.log.Warn().Err(markErr).Str("lesson", ev.VideoLessonID).Msg("failed to set dedup key")
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now().UTC()
	}
	rec := &domain.ProgressRecord{
		CartorioID:    ev.CartorioID,
		UserID:        ev.UserID,
		VideoLessonID: ev.VideoLessonID,
		Completed:     ev.Completed,
		UpdatedAt:     ts,
	}
	if ev.Completed {
		rec.CompletedAt = &ts
	}
	if _, err := s.progress.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("process completion: upsert: %w", err)
	}

	// Audit trail insert is non-fatal.
	if err := s.progress.InsertActivity(ctx, &domain.ActivityEvent{
		CartorioID:    ev.CartorioID,
		UserID:        ev.UserID,
		VideoLessonID: ev.VideoLessonID,
		Completed:     ev.Completed,
		Timestamp:     ts,
	}); err != nil {
		s.log.Warn().Err(err).Str("lesson", ev.VideoLessonID).Msg("failed to insert activity event")
	}

	s.log.Info().
		Str("cartorio_id", ev.CartorioID).
		Str("user_id", ev.UserID).
		Str("lesson", ev.VideoLessonID).
		Bool("completed", ev.Completed).
		Msg("completion event processed")
	return nil
}

// Summary computes completion percentages for one tenant user across all
// products and systems that have at least one lesson.
func (s *ProgressService) Summary(ctx context.Context, cartorioID, userID string) (*ports.ProgressSummary, error) {
	lessons, err := s.catalog.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: list lessons: %w", err)
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: list products: %w", err)
	}
	records, err := s.progress.ListByUser(ctx, cartorioID, userID)
	if err != nil {
		return nil, fmt.Errorf("summary: list progress: %w", err)
	}

	completed := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Completed {
			completed[r.VideoLessonID] = true
		}
	}
	systemOf := make(map[string]string, len(products))
	for _, p := range products {
		systemOf[p.ID] = p.SystemID
	}

	type counter struct{ total, done int }
	perProduct := make(map[string]*counter)
	perSystem := make(map[string]*counter)
	for _, l := range lessons {
		pc := perProduct[l.ProductID]
		if pc == nil {
			pc = &counter{}
			perProduct[l.ProductID] = pc
		}
		sysID := systemOf[l.ProductID]
		sc := perSystem[sysID]
		if sc == nil {
			sc = &counter{}
			perSystem[sysID] = sc
		}
		pc.total++
		sc.total++
		if completed[l.ID] {
			pc.done++
			sc.done++
		}
	}

	out := &ports.ProgressSummary{
		Products: make([]*domain.ProductProgress, 0, len(perProduct)),
		Systems:  make([]*domain.SystemProgress, 0, len(perSystem)),
	}
	for productID, c := range perProduct {
		out.Products = append(out.Products, &domain.ProductProgress{
			ProductID:        productID,
			SystemID:         systemOf[productID],
			TotalLessons:     c.total,
			CompletedLessons: c.done,
			Percent:          domain.CompletionPercent(c.done, c.total),
		})
	}
	for systemID, c := range perSystem {
		out.Systems = append(out.Systems, &domain.SystemProgress{
			SystemID:         systemID,
			TotalLessons:     c.total,
			CompletedLessons: c.done,
			Percent:          domain.CompletionPercent(c.done, c.total),
		})
	}
	sort.Slice(out.Products, func(i, j int) bool { return out.Products[i].ProductID < out.Products[j].ProductID })
	sort.Slice(out.Systems, func(i, j int) bool { return out.Systems[i].SystemID < out.Systems[j].SystemID })
	return out, nil
}
