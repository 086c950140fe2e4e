package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
)

// CartService applies cart transitions to the cart embedded in a user.
//
// Each call reads the user, applies the transition to a copy of its cart and
// writes the cart back only if the user's version is unchanged, retrying on a
// concurrent write. A failed transition writes nothing.
type CartService struct {
	Users      repo.UserRepository
	Logger     *logrus.Logger
	MaxRetries int
}

func NewCartService(users repo.UserRepository, logger *logrus.Logger, maxRetries int) *CartService {
	return &CartService{Users: users, Logger: logger, MaxRetries: maxRetries}
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, price decimal.Decimal) (*entity.User, error) {
	return s.Apply(ctx, userID, entity.CartAdd, productID, price)
}

func (s *CartService) IncreaseItem(ctx context.Context, userID, productID string, price decimal.Decimal) (*entity.User, error) {
	return s.Apply(ctx, userID, entity.CartIncrease, productID, price)
}

func (s *CartService) DecreaseItem(ctx context.Context, userID, productID string, price decimal.Decimal) (*entity.User, error) {
	return s.Apply(ctx, userID, entity.CartDecrease, productID, price)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string, price decimal.Decimal) (*entity.User, error) {
	return s.Apply(ctx, userID, entity.CartRemove, productID, price)
}

// Apply runs op against userID's cart and returns the user as stored afterwards.
func (s *CartService) Apply(ctx context.Context, userID string, op entity.CartOp, productID string, price decimal.Decimal) (*entity.User, error) {
	var saved *entity.User
	err := retryOnConflict(s.MaxRetries, func() error {
		u, err := s.Users.GetByID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		cart := u.Cart.Clone()
		if err := cart.Apply(op, productID, price); err != nil {
			return err
		}
		saved, err = s.Users.SaveCart(ctx, u.ID, u.Version, cart)
		return notFoundAs(err, ErrUserNotFound)
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{
				"user_id":    userID,
				"op":         string(op),
				"product_id": productID,
			}).Debug("cart operation rejected")
		}
		return nil, err
	}
	appMetrics.Add("cart_"+string(op), 1)
	return saved, nil
}

// GetCart returns the stored cart of userID.
func (s *CartService) GetCart(ctx context.Context, userID string) (entity.Cart, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return entity.Cart{}, notFoundAs(err, ErrUserNotFound)
	}
	return u.Cart, nil
}
