package entity

type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title" validate:"required,min=2,max=200"`
	Published int      `json:"published" validate:"required"`
	AuthorID  string   `json:"author_id" validate:"required"`
	Genres    []string `json:"genres" validate:"dive,required"`

	// Author is populated on read paths only; it is never persisted.
	Author *Author `json:"author,omitempty" validate:"-"`
}
