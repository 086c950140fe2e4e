package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNameRequired     = errors.New("product name is required")
	ErrProductCategoryRequired = errors.New("product category is required")
)

// Product is a catalog entry. The catalog is the store of record for prices,
// but cart transitions take the price from the request.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Pictures    []string        `json:"pictures"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate trims the text fields and checks the required ones.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	switch {
	case p.Name == "":
		return ErrProductNameRequired
	case p.Category == "":
		return ErrProductCategoryRequired
	case !ValidPrice(p.Price):
		return ErrInvalidPrice
	}
	return nil
}
