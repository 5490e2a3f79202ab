package domain

import "time"

type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Locale          string     `json:"locale,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
}

type Address struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Label         string `json:"label,omitempty"`
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Area          string `json:"area"`
	Block         string `json:"block,omitempty"`
	Street        string `json:"street"`
	Building      string `json:"building"`
	Floor         string `json:"floor,omitempty"`
	Apartment     string `json:"apartment,omitempty"`
	Notes         string `json:"notes,omitempty"`
	IsDefault     bool   `json:"is_default"`
}

// AddressInput is the payload for creating an address or shipping inline.
type AddressInput struct {
	Label         string `json:"label,omitempty"`
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Area          string `json:"area"`
	Block         string `json:"block,omitempty"`
	Street        string `json:"street"`
	Building      string `json:"building"`
	Floor         string `json:"floor,omitempty"`
	Apartment     string `json:"apartment,omitempty"`
	Notes         string `json:"notes,omitempty"`
	IsDefault     bool   `json:"is_default,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type PasswordChange struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type WishlistItem struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WishlistToggle is the backend answer to a wishlist toggle.
type WishlistToggle struct {
	ProductID  int64 `json:"product_id"`
	InWishlist bool  `json:"in_wishlist"`
}
