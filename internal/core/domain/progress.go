package domain

import "time"

// ProgressRecord tracks completion of one lesson by one tenant user. Unique
// per (cartorio, user, lesson); marking an already-completed lesson updates
// the timestamp instead of inserting a second row.
type ProgressRecord struct {
	ID            string     `json:"id" bson:"_id,omitempty"`
	CartorioID    string     `json:"cartorio_id" bson:"cartorio_id"`
	UserID        string     `json:"user_id" bson:"user_id"`
	VideoLessonID string     `json:"video_lesson_id" bson:"video_lesson_id"`
	Completed     bool       `json:"completed" bson:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
}

// ProductProgress is the per-product completion summary.
type ProductProgress struct {
	ProductID        string `json:"product_id"`
	SystemID         string `json:"system_id"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	Percent          int    `json:"percent"`
}

// SystemProgress aggregates product summaries per system.
type SystemProgress struct {
	SystemID         string `json:"system_id"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	Percent          int    `json:"percent"`
}

// CompletionPercent computes completed/total as a percentage rounded to the
// nearest integer. Zero total yields zero, not a division error.
func CompletionPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}

// ActivityEvent is the audit-trail record produced for every completion
// toggle processed by the dispatcher.
type ActivityEvent struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	CartorioID    string    `json:"cartorio_id" bson:"cartorio_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	VideoLessonID string    `json:"video_lesson_id" bson:"video_lesson_id"`
	Completed     bool      `json:"completed" bson:"completed"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
}
