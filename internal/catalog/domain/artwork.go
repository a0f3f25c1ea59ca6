package domain

import "time"

type SizeOption struct {
	Label      string
	PriceCents int64
}

type Artwork struct {
	ID           string
	Slug         string
	Title        string
	Description  string
	CollectionID string
	Sizes        []SizeOption
	// EditionsLimit is 0 for an open edition.
	EditionsLimit int
	EditionsSold  int
	Images        []string
	Published     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a Artwork) OpenEdition() bool {
	return a.EditionsLimit == 0
}

// Remaining is the number of editions still for sale. It is meaningless for
// open editions; check OpenEdition first.
func (a Artwork) Remaining() int {
	if r := a.EditionsLimit - a.EditionsSold; r > 0 {
		return r
	}
	return 0
}

func (a Artwork) SoldOut() bool {
	return !a.OpenEdition() && a.Remaining() == 0
}

// PriceFor returns the current price of a size label.
func (a Artwork) PriceFor(label string) (int64, bool) {
	for _, s := range a.Sizes {
		if s.Label == label {
			return s.PriceCents, true
		}
	}
	return 0, false
}

func (a Artwork) PrimaryImage() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0]
}

type Collection struct {
	ID          string
	Slug        string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListQuery struct {
	Query         string
	CollectionID  string
	PublishedOnly bool
	Limit         int
	Cursor        string
}
