package entity

// Message is a user-facing notification posted by background operations.
type Message struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Success     bool   `json:"success"`
}
