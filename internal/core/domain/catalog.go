package domain

import "time"

// System is the top level of the catalog hierarchy (system → product → lesson).
type System struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Nome      string    `json:"nome" bson:"nome"`
	Descricao string    `json:"descricao,omitempty" bson:"descricao,omitempty"`
	Ordem     int       `json:"ordem" bson:"ordem"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Product groups the video lessons of one system module.
type Product struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	SystemID  string    `json:"system_id" bson:"system_id"`
	Nome      string    `json:"nome" bson:"nome"`
	Descricao string    `json:"descricao,omitempty" bson:"descricao,omitempty"`
	Ordem     int       `json:"ordem" bson:"ordem"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// VideoLesson references a video hosted on the external CDN; only the URL is
// stored here.
type VideoLesson struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	ProductID   string    `json:"product_id" bson:"product_id"`
	Titulo      string    `json:"titulo" bson:"titulo"`
	Descricao   string    `json:"descricao,omitempty" bson:"descricao,omitempty"`
	VideoURL    string    `json:"video_url" bson:"video_url"`
	DuracaoSecs int       `json:"duracao_secs,omitempty" bson:"duracao_secs,omitempty"`
	Ordem       int       `json:"ordem" bson:"ordem"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Trilha is a curated, ordered subset of lessons forming a guided learning
// path.
type Trilha struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Nome      string    `json:"nome" bson:"nome"`
	Descricao string    `json:"descricao,omitempty" bson:"descricao,omitempty"`
	LessonIDs []string  `json:"lesson_ids" bson:"lesson_ids"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// CatalogProduct is a product with its lessons attached, as returned by the
// scoped catalog endpoint.
type CatalogProduct struct {
	Product `bson:",inline"`
	Lessons []VideoLesson `json:"lessons" bson:"lessons"`
}

// CatalogSystem is a system with its (possibly grant-filtered) products.
type CatalogSystem struct {
	System   `bson:",inline"`
	Products []CatalogProduct `json:"products" bson:"products"`
}
