package domain

// AttemptOutcome is the terminal state of one checkout attempt.
type AttemptOutcome string

const (
	AttemptPending   AttemptOutcome = "PENDING"
	AttemptCommitted AttemptOutcome = "COMMITTED"
	AttemptAborted   AttemptOutcome = "ABORTED"
)

// CommittedDecrement records one durably applied stock decrement so it can
// be reversed if a later step of the same attempt fails.
type CommittedDecrement struct {
	ProductID string
	Quantity  int
}

// CheckoutAttempt is the ephemeral state of one stock reservation run.
// It lives only for the duration of the checkout call and is owned solely
// by the coordinator driving it.
type CheckoutAttempt struct {
	ID        string
	Items     []LineItem
	Committed []CommittedDecrement
	Outcome   AttemptOutcome
}

// NewCheckoutAttempt starts a pending attempt over a cart snapshot.
// Items keep the snapshot order so compensation replays deterministically.
func NewCheckoutAttempt(id string, items []LineItem) *CheckoutAttempt {
	return &CheckoutAttempt{
		ID:      id,
		Items:   items,
		Outcome: AttemptPending,
	}
}
