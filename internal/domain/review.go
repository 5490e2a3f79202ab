package domain

import "time"

type Review struct {
	ID                 int64     `json:"id"`
	ProductID          int64     `json:"product_id"`
	UserID             *int64    `json:"user_id"`
	AuthorName         string    `json:"author_name"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title,omitempty"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	HelpfulCount       int       `json:"helpful_count"`
	AdminResponse      string    `json:"admin_response,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type NewReview struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment"`
	// AuthorName is used for guest reviews only.
	AuthorName string `json:"author_name,omitempty"`
}
