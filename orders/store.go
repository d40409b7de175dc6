package orders

import (
	"context"

	"kirana/models"
)

// StockLine identifies one stock-keeping unit and a quantity to move.
type StockLine struct {
	ProductID string
	VariantID string
	Size      string
	Quantity  int
}

// ProductStore is the slice of the catalog the checkout needs.
type ProductStore interface {
	// FindByIDs returns the active products among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]models.Product, error)

	// DecrementStock subtracts line.Quantity from the line's stock only if at
	// least that much remains. It reports whether the decrement happened.
	DecrementStock(ctx context.Context, line StockLine) (bool, error)

	// RestoreStock adds line.Quantity back; used to compensate a failed
	// reservation.
	RestoreStock(ctx context.Context, line StockLine) error

	// AddSold bumps total_sold counters after a completed reservation.
	AddSold(ctx context.Context, lines []StockLine) error
}

// OrderStore persists orders.
type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, orderID string) error
}

// CounterStore hands out sequence numbers, one document per counter key.
type CounterStore interface {
	Next(ctx context.Context, key string) (int64, error)
}
