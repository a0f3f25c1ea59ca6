package features

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/dwikikusuma/atelier/internal/cart/app"
	"github.com/dwikikusuma/atelier/internal/cart/domain"
	"github.com/dwikikusuma/atelier/internal/cart/infra/memory"
)

const snapshotKey = "atelier-cart:feature"

var errWritesRejected = errors.New("writes rejected")

// flakyStore wraps the memory store and can be told to reject writes.
type flakyStore struct {
	*memory.SnapshotStore
	reject bool
}

func (f *flakyStore) Save(ctx context.Context, key string, data []byte) error {
	if f.reject {
		return errWritesRejected
	}
	return f.SnapshotStore.Save(ctx, key, data)
}

type cartTestContext struct {
	snapshots *flakyStore
	store     *app.Store
	err       error
}

func (c *cartTestContext) reset() {
	c.snapshots = &flakyStore{SnapshotStore: memory.NewSnapshotStore()}
	c.store = nil
	c.err = nil
}

func (c *cartTestContext) anEmptyCart() error {
	store, err := app.NewStore(context.Background(), snapshotKey, c.snapshots)
	if err != nil {
		return err
	}
	c.store = store
	return nil
}

func (c *cartTestContext) theStoredSnapshot(doc *godog.DocString) error {
	return c.snapshots.Save(context.Background(), snapshotKey, []byte(doc.Content))
}

func (c *cartTestContext) storageRejectsWrites() error {
	c.snapshots.reject = true
	return nil
}

func (c *cartTestContext) thePageReloads() error {
	return c.anEmptyCart()
}

func (c *cartTestContext) iAdd(qty int, artworkID, size string, cents int64) error {
	_, c.err = c.store.AddItem(context.Background(), domain.LineItem{
		ArtworkID:      artworkID,
		Size:           size,
		UnitPriceCents: cents,
		Quantity:       qty,
		Title:          "Print " + artworkID,
	})
	return nil
}

func (c *cartTestContext) iSetTheQuantity(artworkID, size string, qty int) error {
	_, c.err = c.store.UpdateQuantity(context.Background(), artworkID, size, qty)
	return nil
}

func (c *cartTestContext) iRemove(artworkID, size string) error {
	_, c.err = c.store.RemoveItem(context.Background(), artworkID, size)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	_, c.err = c.store.Clear(context.Background())
	return nil
}

func (c *cartTestContext) iOpenTheCart() error {
	c.store.OpenCart()
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.store.State().Items); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartHoldsItems(n int) error {
	if got := c.store.TotalItems(); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(cents int64) error {
	if got := c.store.TotalCents(); got != cents {
		return fmt.Errorf("expected total %d, got %d", cents, got)
	}
	return nil
}

func (c *cartTestContext) theDrawerIs(state string) error {
	want := state == "open"
	if got := c.store.State().IsOpen; got != want {
		return fmt.Errorf("expected drawer %s, got isOpen=%v", state, got)
	}
	return nil
}

func (c *cartTestContext) theLastChangeFailed() error {
	if !errors.Is(c.err, errWritesRejected) {
		return fmt.Errorf("expected rejected write, got %v", c.err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^the stored snapshot:$`, tc.theStoredSnapshot)
	ctx.Step(`^storage rejects writes$`, tc.storageRejectsWrites)

	// When steps
	ctx.Step(`^the page reloads$`, tc.thePageReloads)
	ctx.Step(`^I add (\d+) of "([^"]*)" in size "([^"]*)" at (\d+) cents$`, tc.iAdd)
	ctx.Step(`^I set the quantity of "([^"]*)" in size "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantity)
	ctx.Step(`^I remove "([^"]*)" in size "([^"]*)"$`, tc.iRemove)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^I open the cart$`, tc.iOpenTheCart)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart holds (\d+) items$`, tc.theCartHoldsItems)
	ctx.Step(`^the cart total is (\d+) cents$`, tc.theCartTotalIs)
	ctx.Step(`^the drawer is (open|closed)$`, tc.theDrawerIs)
	ctx.Step(`^the last change failed$`, tc.theLastChangeFailed)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
