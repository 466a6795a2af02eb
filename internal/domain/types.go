package domain

import "time"

// Kind discriminates the two merchandise variants. The original collection
// tracked hats and jerseys as separate tables with near-identical columns;
// here they share one Item type tagged by Kind.
type Kind string

const (
	KindHat    Kind = "hat"
	KindJersey Kind = "jersey"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindHat || k == KindJersey
}

// Plural returns the collection name used in URLs and copy ("hats", "jerseys").
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Item is a single piece of merchandise. Player is only meaningful for
// jerseys and is always empty for hats. PricePaid and ImageURL are optional.
type Item struct {
	ID          string
	Kind        Kind
	Team        string
	Player      string
	ColorDesign string
	Location    string
	PricePaid   *float64
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
