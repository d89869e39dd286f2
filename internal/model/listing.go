package model

// Listing is a single rental offer that passed extraction filters.
// Link identifies the listing across cycles.
type Listing struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
	Link  string `json:"link"`
}
