package domain

// Envelope wraps single-resource and action responses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

type PageLinks struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Success bool      `json:"success"`
	Data    []T       `json:"data"`
	Meta    PageMeta  `json:"meta"`
	Links   PageLinks `json:"links"`
}

// ErrorBody is the failure envelope. Errors carries field messages on 422.
type ErrorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
