package model

type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Contains reports whether price lies in [Min, Max].
func (r PriceRange) Contains(price int64) bool {
	return price >= r.Min && price <= r.Max
}

func (r PriceRange) Valid() bool {
	return r.Min >= 0 && r.Min <= r.Max
}
