package notify

import (
	"context"
	"errors"
)

// Multi fans an alert out to several notifiers. Every notifier is tried;
// the joined errors are returned.
type Multi []Notifier

func (m Multi) NotifyLowStock(ctx context.Context, alert LowStockAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyLowStock(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
