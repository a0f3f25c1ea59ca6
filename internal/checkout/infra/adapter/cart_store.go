package adapter

import (
	"context"

	cartapp "github.com/dwikikusuma/atelier/internal/cart/app"
	"github.com/dwikikusuma/atelier/internal/cart/domain"
	checkoutapp "github.com/dwikikusuma/atelier/internal/checkout/app"
)

// CartSessions exposes the cart sessions registry to checkout.
type CartSessions struct {
	sessions *cartapp.Sessions
}

func NewCartSessions(sessions *cartapp.Sessions) *CartSessions {
	return &CartSessions{sessions: sessions}
}

func (c *CartSessions) Items(ctx context.Context, sessionID string) ([]checkoutapp.CartItem, error) {
	store, err := c.sessions.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st := store.State()
	items := make([]checkoutapp.CartItem, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, toCartItem(it))
	}
	return items, nil
}

func (c *CartSessions) Reprice(ctx context.Context, sessionID, artworkID, size string, unitPriceCents int64) error {
	store, err := c.sessions.Open(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = store.Reprice(ctx, artworkID, size, unitPriceCents)
	return err
}

func (c *CartSessions) SetQuantity(ctx context.Context, sessionID, artworkID, size string, quantity int) error {
	store, err := c.sessions.Open(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = store.UpdateQuantity(ctx, artworkID, size, quantity)
	return err
}

func (c *CartSessions) Remove(ctx context.Context, sessionID, artworkID, size string) error {
	store, err := c.sessions.Open(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = store.RemoveItem(ctx, artworkID, size)
	return err
}

func (c *CartSessions) Clear(ctx context.Context, sessionID string) error {
	store, err := c.sessions.Open(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = store.Clear(ctx)
	return err
}

func toCartItem(it domain.LineItem) checkoutapp.CartItem {
	return checkoutapp.CartItem{
		ArtworkID:      it.ArtworkID,
		Size:           it.Size,
		Title:          it.Title,
		ImageURL:       it.ImageURL,
		UnitPriceCents: it.UnitPriceCents,
		Quantity:       it.Quantity,
	}
}
