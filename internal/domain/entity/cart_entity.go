package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotInCart    = errors.New("item not found in cart")
	ErrInvalidPrice     = errors.New("price must be a non-negative number")
	ErrInvalidProductID = errors.New("invalid product id")
)

// MaxProductIDLen bounds product ids, which become keys of the stored items map.
const MaxProductIDLen = 64

// CartOp names one of the four cart transitions.
type CartOp string

const (
	CartAdd      CartOp = "add"
	CartIncrease CartOp = "increase"
	CartDecrease CartOp = "decrease"
	CartRemove   CartOp = "remove"
)

// Cart is the running cart state embedded in a user record.
//
// Total and Count are maintained incrementally by the transitions below and are
// never recomputed from Items, because the unit price is supplied per call.
// A product id present in Items always maps to a quantity >= 1.
type Cart struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Items map[string]int  `json:"items"`
}

// NewCart returns the zeroed cart every user starts with.
func NewCart() Cart {
	return Cart{Total: decimal.Zero, Count: 0, Items: map[string]int{}}
}

// ValidateProductID rejects ids that cannot be used as a document key.
func ValidateProductID(productID string) error {
	switch {
	case strings.TrimSpace(productID) == "":
		return fmt.Errorf("%w: empty", ErrInvalidProductID)
	case len(productID) > MaxProductIDLen:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidProductID, MaxProductIDLen)
	case strings.ContainsAny(productID, ".$"):
		return fmt.Errorf("%w: %q contains '.' or '$'", ErrInvalidProductID, productID)
	}
	return nil
}

// Price bounds: at most 34 significant and 34 integer digits, and no finer
// than 18 decimal places, so any accepted price fits a Decimal128.
const (
	MaxPriceDigits   = 34
	MinPriceExponent = -18
)

// ValidPrice reports whether p is non-negative and within the price bounds.
func ValidPrice(p decimal.Decimal) bool {
	if p.IsNegative() || p.Exponent() < MinPriceExponent {
		return false
	}
	digits := len(p.Coefficient().String())
	if digits > MaxPriceDigits {
		return false
	}
	return int64(digits)+int64(p.Exponent()) <= MaxPriceDigits
}

func checkLine(productID string, price decimal.Decimal) error {
	if err := ValidateProductID(productID); err != nil {
		return err
	}
	if !ValidPrice(price) {
		return ErrInvalidPrice
	}
	return nil
}

// Quantity returns the quantity of productID, zero when absent.
func (c *Cart) Quantity(productID string) int {
	return c.Items[productID]
}

// Clone returns a deep copy so a failed transition never leaks into the original.
func (c Cart) Clone() Cart {
	items := make(map[string]int, len(c.Items))
	for k, v := range c.Items {
		items[k] = v
	}
	c.Items = items
	return c
}

// Apply dispatches op to the matching transition.
func (c *Cart) Apply(op CartOp, productID string, price decimal.Decimal) error {
	switch op {
	case CartAdd:
		return c.AddItem(productID, price)
	case CartIncrease:
		return c.IncreaseItem(productID, price)
	case CartDecrease:
		return c.DecreaseItem(productID, price)
	case CartRemove:
		return c.RemoveItem(productID, price)
	default:
		return fmt.Errorf("unknown cart operation %q", op)
	}
}

// AddItem puts one unit of productID in the cart, creating the line if needed.
func (c *Cart) AddItem(productID string, price decimal.Decimal) error {
	if err := checkLine(productID, price); err != nil {
		return err
	}
	if c.Items == nil {
		c.Items = map[string]int{}
	}
	c.Items[productID]++
	c.Count++
	c.Total = c.Total.Add(price)
	return nil
}

// IncreaseItem adds one unit to an existing line. Unlike AddItem it refuses to
// create the line.
func (c *Cart) IncreaseItem(productID string, price decimal.Decimal) error {
	if err := checkLine(productID, price); err != nil {
		return err
	}
	if c.Items[productID] <= 0 {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, productID)
	}
	c.Items[productID]++
	c.Count++
	c.Total = c.Total.Add(price)
	return nil
}

// DecreaseItem removes one unit of an existing line; the line disappears when
// its quantity reaches zero.
func (c *Cart) DecreaseItem(productID string, price decimal.Decimal) error {
	if err := checkLine(productID, price); err != nil {
		return err
	}
	q := c.Items[productID]
	if q <= 0 {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, productID)
	}
	if q == 1 {
		delete(c.Items, productID)
	} else {
		c.Items[productID] = q - 1
	}
	c.Count--
	c.Total = c.Total.Sub(price)
	return nil
}

// RemoveItem drops the whole line regardless of its quantity.
func (c *Cart) RemoveItem(productID string, price decimal.Decimal) error {
	if err := checkLine(productID, price); err != nil {
		return err
	}
	q := c.Items[productID]
	if q <= 0 {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, productID)
	}
	delete(c.Items, productID)
	c.Count -= q
	c.Total = c.Total.Sub(price.Mul(decimal.NewFromInt(int64(q))))
	return nil
}
