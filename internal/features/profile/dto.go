package profile

import "github.com/google/uuid"

type UpdateRequest struct {
	DisplayName   string   `json:"displayName" validate:"required,max=50"`
	FavoriteMeals []string `json:"favoriteMeals" validate:"max=3,dive,required,max=50"`
	Hobbies       []string `json:"hobbies" validate:"max=10,dive,required,max=30"`
	Areas         []string `json:"areas" validate:"max=5,dive,required,max=50"`
	Bio           string   `json:"bio" validate:"max=500"`
	Budget        string   `json:"budget" validate:"max=30"`
	Style         string   `json:"style" validate:"max=30"`
}

// Summary is the public face of a member shown across matching and meals.
type Summary struct {
	UserID        uuid.UUID `json:"userId"`
	DisplayName   string    `json:"displayName"`
	Bio           string    `json:"bio,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	FavoriteMeals []string  `json:"favoriteMeals,omitempty"`
	Hobbies       []string  `json:"hobbies,omitempty"`
	Areas         []string  `json:"areas,omitempty"`
}

type Response struct {
	Summary
	Budget string `json:"budget,omitempty"`
	Style  string `json:"style,omitempty"`
}

// Upload is a validated-on-save image file taken from a multipart form.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Content  []byte
}
