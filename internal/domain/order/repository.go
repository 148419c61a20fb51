package order

import "context"

// Repository persists orders. The order record is owned by the shop's order
// management; this subsystem only creates test fixtures, reads, and requests
// the conditional settlement write.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// SettleIfPending writes the payment fields of o with a single
	// conditional update guarded on payment_status = pending. It returns
	// false when the guard did not match, meaning another settlement
	// attempt won the race and no row was changed.
	SettleIfPending(ctx context.Context, o *Order) (bool, error)
}
