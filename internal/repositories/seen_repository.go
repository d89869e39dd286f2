package repositories

// SeenRepository records listing links that were already forwarded during
// the current process lifetime.
type SeenRepository interface {
	Has(link string) bool
	Add(link string) bool
	Len() int
}
