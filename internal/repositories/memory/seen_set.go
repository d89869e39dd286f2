package memory

// SeenSet is an in-memory set of listing links. It is owned by a single
// loop goroutine and is not safe for concurrent use.
type SeenSet struct {
	links map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{links: make(map[string]struct{})}
}

func (s *SeenSet) Has(link string) bool {
	_, ok := s.links[link]
	return ok
}

// Add stores link and reports whether it was not present before.
func (s *SeenSet) Add(link string) bool {
	if _, ok := s.links[link]; ok {
		return false
	}
	s.links[link] = struct{}{}
	return true
}

func (s *SeenSet) Len() int {
	return len(s.links)
}
