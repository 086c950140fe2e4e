package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
)

type cartDocument struct {
	Total primitive.Decimal128 `bson:"total"`
	Count int                  `bson:"count"`
	Items map[string]int       `bson:"items"`
}

type notificationDocument struct {
	Status  string    `bson:"status"`
	Message string    `bson:"message"`
	Time    time.Time `bson:"time"`
}

type userDocument struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty"`
	Name          string                 `bson:"name"`
	Email         string                 `bson:"email"`
	Password      string                 `bson:"password"`
	IsAdmin       bool                   `bson:"isAdmin"`
	Cart          cartDocument           `bson:"cart"`
	Notifications []notificationDocument `bson:"notifications"`
	Orders        []primitive.ObjectID   `bson:"orders"`
	Version       int64                  `bson:"version"`
	CreatedAt     time.Time              `bson:"createdAt"`
	UpdatedAt     time.Time              `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	if d == (primitive.Decimal128{}) {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", d.String(), err)
	}
	return v, nil
}

func newCartDocument(c entity.Cart) (cartDocument, error) {
	total, err := toDecimal128(c.Total)
	if err != nil {
		return cartDocument{}, err
	}
	items := make(map[string]int, len(c.Items))
	for k, v := range c.Items {
		items[k] = v
	}
	return cartDocument{Total: total, Count: c.Count, Items: items}, nil
}

func (d cartDocument) toEntity() (entity.Cart, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return entity.Cart{}, err
	}
	items := make(map[string]int, len(d.Items))
	for k, v := range d.Items {
		items[k] = v
	}
	return entity.Cart{Total: total, Count: d.Count, Items: items}, nil
}

func newUserDocument(u *entity.User) (userDocument, error) {
	cart, err := newCartDocument(u.Cart)
	if err != nil {
		return userDocument{}, err
	}
	doc := userDocument{
		Name:          u.Name,
		Email:         u.Email,
		Password:      u.PasswordHash,
		IsAdmin:       u.IsAdmin,
		Cart:          cart,
		Notifications: make([]notificationDocument, 0, len(u.Notifications)),
		Orders:        make([]primitive.ObjectID, 0, len(u.Orders)),
		Version:       u.Version,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.ID != "" {
		oid, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return userDocument{}, fmt.Errorf("invalid user id %q: %w", u.ID, err)
		}
		doc.ID = oid
	}
	for _, n := range u.Notifications {
		doc.Notifications = append(doc.Notifications, notificationDocument(n))
	}
	for _, o := range u.Orders {
		oid, err := primitive.ObjectIDFromHex(o)
		if err != nil {
			return userDocument{}, fmt.Errorf("invalid order id %q: %w", o, err)
		}
		doc.Orders = append(doc.Orders, oid)
	}
	return doc, nil
}

func (d userDocument) toEntity() (*entity.User, error) {
	cart, err := d.Cart.toEntity()
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Email:         d.Email,
		PasswordHash:  d.Password,
		IsAdmin:       d.IsAdmin,
		Cart:          cart,
		Notifications: make([]entity.Notification, 0, len(d.Notifications)),
		Orders:        make([]string, 0, len(d.Orders)),
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, n := range d.Notifications {
		u.Notifications = append(u.Notifications, entity.Notification(n))
	}
	for _, o := range d.Orders {
		u.Orders = append(u.Orders, o.Hex())
	}
	return u, nil
}
