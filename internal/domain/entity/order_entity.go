package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a snapshot of a cart owned by a user. Orders are removed together
// with their owner.
type Order struct {
	ID       string          `json:"id"`
	Owner    string          `json:"owner"`
	Status   string          `json:"status"`
	Products map[string]int  `json:"products"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Address  string          `json:"address"`
	Date     time.Time       `json:"date"`
}

const OrderProcessing = "processing"

// NewOrderFromCart snapshots a cart into an order for owner.
func NewOrderFromCart(owner string, c Cart, address string) *Order {
	snap := c.Clone()
	return &Order{
		Owner:    owner,
		Status:   OrderProcessing,
		Products: snap.Items,
		Count:    snap.Count,
		Total:    snap.Total,
		Address:  address,
		Date:     time.Now().UTC(),
	}
}
