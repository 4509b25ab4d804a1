package entity

type User struct {
	ID            string `json:"id"`
	Username      string `json:"username" validate:"required,min=3,max=50"`
	FavoriteGenre string `json:"favorite_genre" validate:"required"`
	PasswordHash  string `json:"-"`
}
