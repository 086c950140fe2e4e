package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
)

type orderDocument struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty"`
	Owner    primitive.ObjectID   `bson:"owner"`
	Status   string               `bson:"status"`
	Products map[string]int       `bson:"products"`
	Count    int                  `bson:"count"`
	Total    primitive.Decimal128 `bson:"total"`
	Address  string               `bson:"address"`
	Date     time.Time            `bson:"date"`
}

func (d orderDocument) toEntity() (*entity.Order, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return nil, err
	}
	return &entity.Order{
		ID:       d.ID.Hex(),
		Owner:    d.Owner.Hex(),
		Status:   d.Status,
		Products: d.Products,
		Count:    d.Count,
		Total:    total,
		Address:  d.Address,
		Date:     d.Date,
	}, nil
}

type OrderRepository struct {
	orders *mongo.Collection
	users  *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{orders: db.Collection("orders"), users: db.Collection(usersCollection)}
}

func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "date", Value: -1}},
		Options: options.Index().SetName("owner_date"),
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

// Create inserts the order and appends its id to the owner's orders.
func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	owner, err := primitive.ObjectIDFromHex(o.Owner)
	if err != nil {
		return repository.ErrNotFound
	}
	total, err := toDecimal128(o.Total)
	if err != nil {
		return err
	}
	doc := orderDocument{
		ID:       primitive.NewObjectID(),
		Owner:    owner,
		Status:   o.Status,
		Products: o.Products,
		Count:    o.Count,
		Total:    total,
		Address:  o.Address,
		Date:     o.Date,
	}
	if _, err := r.orders.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": owner},
		bson.M{"$push": bson.M{"orders": doc.ID}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to link order to owner: %w", err)
	}
	if res.MatchedCount == 0 {
		_, _ = r.orders.DeleteOne(ctx, bson.M{"_id": doc.ID})
		return repository.ErrNotFound
	}
	o.ID = doc.ID.Hex()
	return nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.Order, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return []*entity.Order{}, nil
	}
	cur, err := r.orders.Find(ctx, bson.M{"owner": oid}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	out := make([]*entity.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OrderRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return 0, nil
	}
	res, err := r.orders.DeleteMany(ctx, bson.M{"owner": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete orders: %w", err)
	}
	return res.DeletedCount, nil
}

var _ repository.OrderRepository = (*OrderRepository)(nil)
