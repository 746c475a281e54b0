package checkout

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/salman854raza/test-sanity-e-commerce/internal/docstore"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
)

const stockField = "stock"

// StockStore is the slice of the document store contract the coordinator
// depends on. Consumers define this interface, not the storage backend.
type StockStore interface {
	Get(ctx context.Context, key string) (docstore.Document, docstore.Revision, error)
	ConditionalSet(ctx context.Context, key string, fields docstore.Document, expected docstore.Revision) (docstore.Revision, error)
}

// Coordinator durably decrements per-product stock for one checkout attempt,
// or guarantees no net stock change. Correctness relies entirely on the
// store's revision-checked writes; no lock is ever taken.
type Coordinator struct {
	stocks       StockStore
	maxAttempts  int
	callTimeout  time.Duration
	retryBackoff time.Duration
}

func NewCoordinator(stocks StockStore) *Coordinator {
	return &Coordinator{
		stocks:       stocks,
		maxAttempts:  4,
		callTimeout:  2 * time.Second,
		retryBackoff: 50 * time.Millisecond,
	}
}

// Reserve applies the conditional decrement for every item of the attempt,
// sequentially and in snapshot order. On any permanent failure it reverses
// the decrements already committed before returning the item's failure, so
// a failed attempt never leaves a net stock change behind. If the reversal
// itself cannot complete, the returned error is a CompensationError instead.
func (c *Coordinator) Reserve(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	for _, item := range attempt.Items {
		if len(attempt.Committed) == 0 {
			// Caller cancellation is honored only while nothing has
			// committed yet.
			if err := ctx.Err(); err != nil {
				attempt.Outcome = domain.AttemptAborted
				return err
			}
		}

		if err := c.decrement(ctx, item.ProductID, item.Quantity); err != nil {
			if relErr := c.Release(ctx, attempt); relErr != nil {
				return relErr
			}
			return err
		}

		attempt.Committed = append(attempt.Committed, domain.CommittedDecrement{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		// Once the first item commits the attempt must run to completion.
		ctx = context.WithoutCancel(ctx)
	}
	return nil
}

// Release reverses every committed decrement of the attempt, newest first,
// with the same retry budget as the forward path. Decrements that could not
// be reversed are reported in a CompensationError; they are never silently
// dropped.
func (c *Coordinator) Release(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	ctx = context.WithoutCancel(ctx)

	var stuck []string
	for i := len(attempt.Committed) - 1; i >= 0; i-- {
		dec := attempt.Committed[i]
		if err := c.increment(ctx, dec.ProductID, dec.Quantity); err != nil {
			log.Printf("compensation failed for attempt %s product %s: %v", attempt.ID, dec.ProductID, err)
			stuck = append(stuck, dec.ProductID)
		}
	}

	if len(stuck) > 0 {
		return &CompensationError{AttemptID: attempt.ID, ProductIDs: stuck}
	}

	attempt.Committed = nil
	attempt.Outcome = domain.AttemptAborted
	return nil
}

func (c *Coordinator) decrement(ctx context.Context, productID string, quantity int) error {
	return c.retryOnConflict(ctx, productID, func(callCtx context.Context) error {
		doc, rev, err := c.stocks.Get(callCtx, productID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return &ProductNotFoundError{ProductID: productID}
			}
			return err
		}

		// Tolerate a missing or malformed stock field by treating it as zero.
		stock, _ := docstore.Int64(doc, stockField)
		newStock := stock - int64(quantity)
		if newStock < 0 {
			return &InsufficientStockError{ProductID: productID, Requested: quantity, Available: stock}
		}

		_, err = c.stocks.ConditionalSet(callCtx, productID, docstore.Document{stockField: newStock}, rev)
		return err
	})
}

func (c *Coordinator) increment(ctx context.Context, productID string, quantity int) error {
	return c.retryOnConflict(ctx, productID, func(callCtx context.Context) error {
		doc, rev, err := c.stocks.Get(callCtx, productID)
		if err != nil {
			return err
		}

		stock, _ := docstore.Int64(doc, stockField)
		_, err = c.stocks.ConditionalSet(callCtx, productID, docstore.Document{stockField: stock + int64(quantity)}, rev)
		return err
	})
}

// retryOnConflict runs one read-then-conditional-write cycle up to
// maxAttempts times. Revision conflicts and timed-out store calls are the
// transient class worth retrying; everything else fails immediately.
func (c *Coordinator) retryOnConflict(ctx context.Context, productID string, cycle func(context.Context) error) error {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.runBounded(ctx, cycle)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		if attempt == c.maxAttempts {
			return &ConflictError{ProductID: productID}
		}
		c.backoff(ctx, attempt)
	}
	return &ConflictError{ProductID: productID}
}

func (c *Coordinator) runBounded(ctx context.Context, cycle func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return cycle(callCtx)
}

func isTransient(err error) bool {
	return errors.Is(err, docstore.ErrRevisionConflict) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Coordinator) backoff(ctx context.Context, attempt int) {
	delay := c.retryBackoff * time.Duration(attempt)
	jitter := time.Duration(rand.Int63n(int64(c.retryBackoff)))
	select {
	case <-time.After(delay + jitter):
	case <-ctx.Done():
	}
}
