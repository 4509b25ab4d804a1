package entity

// Author is a book author. Name is unique across the catalog.
type Author struct {
	ID    string   `json:"id"`
	Name  string   `json:"name" validate:"required,min=2,max=100"`
	Born  *int     `json:"born,omitempty"`
	Books []string `json:"books"` // ids of the author's books, in insertion order
}
