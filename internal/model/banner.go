package model

// Banner represents one slide in the home-page carousel.
type Banner struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl,omitempty"`
}
