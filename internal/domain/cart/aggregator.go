package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/notify"
)

// mirrorTimeout bounds a single best-effort remote mirror write.
const mirrorTimeout = 10 * time.Second

// ProductNotFoundError indicates the requested product is absent from the
// catalog snapshot.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// OutOfStockError indicates the product has no remaining stock.
type OutOfStockError struct {
	ProductID string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.ProductID)
}

// NotInCartError indicates the cart holds no line for the product.
type NotInCartError struct {
	ProductID string
}

func (e *NotInCartError) Error() string {
	return fmt.Sprintf("product %s is not in the cart", e.ProductID)
}

// State is the slice of application state the aggregator owns. SetCart is
// the sole mutation path and persists the cart to the local store
// synchronously before returning.
type State interface {
	Cart() Cart
	SetCart(Cart) error
}

// Aggregator mutates cart contents through the application state and keeps
// the remote mirror in sync.
//
// Persistence is write-through: every mutation writes the cart locally via
// SetCart, then mirrors it to the remote user record asynchronously. A
// mirror failure is reported through the notifier and does not roll back
// the local mutation.
type Aggregator struct {
	state     State
	mirror    Mirror
	notifier  notify.Notifier
	confirmer notify.Confirmer
	userID    string // empty for anonymous sessions; mirror is skipped

	wg sync.WaitGroup
}

// NewAggregator creates an Aggregator bound to one session's state. userID
// may be empty when no user is authenticated.
func NewAggregator(state State, mirror Mirror, notifier notify.Notifier, confirmer notify.Confirmer, userID string) *Aggregator {
	return &Aggregator{
		state:     state,
		mirror:    mirror,
		notifier:  notifier,
		confirmer: confirmer,
		userID:    userID,
	}
}

// AddItem adds quantity of the product to the cart, incrementing an existing
// line or appending a new one. The product must be present in the catalog
// snapshot and have stock remaining; quantity is otherwise not validated
// against stock, so a cart can exceed actual availability.
func (a *Aggregator) AddItem(ctx context.Context, productID string, quantity int, catalog map[string]product.Product) error {
	p, ok := catalog[productID]
	if !ok {
		a.notifier.Notify(ctx, "Product is no longer available.", true)
		return &ProductNotFoundError{ProductID: productID}
	}
	if p.Stock <= 0 {
		a.notifier.Notify(ctx, p.Name+" is out of stock.", true)
		return &OutOfStockError{ProductID: productID}
	}
	if quantity <= 0 {
		quantity = 1
	}

	c := a.state.Cart().Clone()
	if i := c.Find(productID); i >= 0 {
		c[i].Quantity += quantity
	} else {
		c = append(c, Line{ProductID: productID, Quantity: quantity})
	}

	return a.persist(ctx, c)
}

// UpdateQuantity sets the quantity of an existing line in place. A quantity
// of zero or less behaves exactly like RemoveItem, including the
// confirmation prompt.
func (a *Aggregator) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		_, err := a.RemoveItem(ctx, productID)
		return err
	}

	c := a.state.Cart().Clone()
	i := c.Find(productID)
	if i < 0 {
		return &NotInCartError{ProductID: productID}
	}
	c[i].Quantity = quantity

	return a.persist(ctx, c)
}

// RemoveItem deletes the line for productID after the user confirms. When
// confirmation is declined the cart is unchanged and removed is false.
func (a *Aggregator) RemoveItem(ctx context.Context, productID string) (removed bool, err error) {
	c := a.state.Cart()
	i := c.Find(productID)
	if i < 0 {
		return false, &NotInCartError{ProductID: productID}
	}

	ok, err := a.confirmer.Confirm(ctx, "Remove this item from your cart?", "Remove item")
	if err != nil {
		return false, errors.Wrap(err, "confirm removal")
	}
	if !ok {
		return false, nil
	}

	c = c.Clone()
	c = append(c[:i], c[i+1:]...)

	if err := a.persist(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

// Clear empties the cart. Used after a successful checkout; no confirmation
// is requested.
func (a *Aggregator) Clear(ctx context.Context) error {
	return a.persist(ctx, Cart{})
}

// persist writes the cart locally (synchronous, authoritative) and kicks off
// the best-effort remote mirror write.
func (a *Aggregator) persist(ctx context.Context, c Cart) error {
	if err := a.state.SetCart(c); err != nil {
		return errors.Wrap(err, "save cart")
	}
	a.mirrorAsync(ctx, c)
	return nil
}

// mirrorAsync replicates the cart to the remote user record in the
// background. Failures become a notice, never an error.
func (a *Aggregator) mirrorAsync(ctx context.Context, c Cart) {
	if a.userID == "" || a.mirror == nil {
		return
	}

	// Detach from the request context so an early response does not cancel
	// the mirror write.
	ctx = context.WithoutCancel(ctx)
	snapshot := c.Clone()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		mctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
		defer cancel()

		if err := a.mirror.Save(mctx, a.userID, snapshot); err != nil {
			a.notifier.Notify(ctx, "Could not sync your cart to your account.", true)
		}
	}()
}

// Wait blocks until all in-flight mirror writes finish. Intended for tests
// and graceful shutdown.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}
