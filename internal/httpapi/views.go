package httpapi

import (
	cartdomain "github.com/dwikikusuma/atelier/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/atelier/internal/catalog/domain"
	"github.com/dwikikusuma/atelier/pkg/money"
)

type sizeView struct {
	Label      string `json:"label"`
	PriceCents int64  `json:"priceCents"`
	Price      string `json:"price"`
}

type artworkView struct {
	ID                string     `json:"id"`
	Slug              string     `json:"slug"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	CollectionID      string     `json:"collectionId,omitempty"`
	Sizes             []sizeView `json:"sizes"`
	EditionsLimit     int        `json:"editionsLimit"`
	EditionsRemaining *int       `json:"editionsRemaining"`
	SoldOut           bool       `json:"soldOut"`
	Images            []string   `json:"images"`
	Published         bool       `json:"published"`
}

type collectionView struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Artworks    []artworkView `json:"artworks,omitempty"`
}

type cartLineView struct {
	ArtworkID      string `json:"artworkId"`
	Size           string `json:"size"`
	Title          string `json:"title"`
	ImageURL       string `json:"imageUrl"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

type cartView struct {
	Items      []cartLineView `json:"items"`
	IsOpen     bool           `json:"isOpen"`
	TotalItems int            `json:"totalItems"`
	TotalCents int64          `json:"totalCents"`
	Total      string         `json:"total"`
}

func toArtworkView(a catalogdomain.Artwork, currency string) artworkView {
	v := artworkView{
		ID:            a.ID,
		Slug:          a.Slug,
		Title:         a.Title,
		Description:   a.Description,
		CollectionID:  a.CollectionID,
		Sizes:         make([]sizeView, 0, len(a.Sizes)),
		EditionsLimit: a.EditionsLimit,
		SoldOut:       a.SoldOut(),
		Images:        a.Images,
		Published:     a.Published,
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	if !a.OpenEdition() {
		remaining := a.Remaining()
		v.EditionsRemaining = &remaining
	}
	for _, sz := range a.Sizes {
		v.Sizes = append(v.Sizes, sizeView{
			Label:      sz.Label,
			PriceCents: sz.PriceCents,
			Price:      money.Format(sz.PriceCents, currency),
		})
	}
	return v
}

func toCollectionView(c catalogdomain.Collection) collectionView {
	return collectionView{ID: c.ID, Slug: c.Slug, Title: c.Title, Description: c.Description}
}

func toCartView(st cartdomain.State, currency string) cartView {
	v := cartView{
		Items:      make([]cartLineView, 0, len(st.Items)),
		IsOpen:     st.IsOpen,
		TotalItems: st.TotalItems(),
		TotalCents: st.TotalCents(),
		Total:      money.Format(st.TotalCents(), currency),
	}
	for _, it := range st.Items {
		v.Items = append(v.Items, cartLineView{
			ArtworkID:      it.ArtworkID,
			Size:           it.Size,
			Title:          it.Title,
			ImageURL:       it.ImageURL,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			LineTotalCents: it.LineTotalCents(),
		})
	}
	return v
}
