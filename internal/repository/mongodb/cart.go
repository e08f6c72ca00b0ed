package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Pesokrava/storefront/internal/domain"
)

const cartsCollection = "carts"

// CartRepository implements domain.CartRepository with one document per user
type CartRepository struct {
	collection *mongo.Collection
}

// NewCartRepository creates a cart repository over the carts collection
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection(cartsCollection)}
}

// CreateIndexes enforces one cart per user
func (r *CartRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}

// Ids and prices are stored as strings so documents stay readable in the shell
type lineDocument struct {
	ID        string    `bson:"id"`
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	Price     string    `bson:"price"`
	Size      *int      `bson:"size,omitempty"`
	Color     string    `bson:"color,omitempty"`
	AddedAt   time.Time `bson:"added_at"`
}

type cartDocument struct {
	ID        string         `bson:"_id"`
	UserID    string         `bson:"user_id"`
	Items     []lineDocument `bson:"items"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

func toLineDocuments(lines []domain.CartLine) []lineDocument {
	docs := make([]lineDocument, 0, len(lines))
	for _, l := range lines {
		docs = append(docs, lineDocument{
			ID:        l.ID.String(),
			ProductID: l.ProductID.String(),
			Quantity:  l.Quantity,
			Price:     l.Price.String(),
			Size:      l.Size,
			Color:     l.Color,
			AddedAt:   l.AddedAt,
		})
	}
	return docs
}

func (d cartDocument) toDomain() (*domain.Cart, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid cart id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid cart user id %q: %w", d.UserID, err)
	}

	cart := &domain.Cart{
		ID:        id,
		UserID:    userID,
		Items:     make([]domain.CartLine, 0, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, l := range d.Items {
		lineID, err := uuid.Parse(l.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid cart line id %q: %w", l.ID, err)
		}
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid cart line product id %q: %w", l.ProductID, err)
		}
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid cart line price %q: %w", l.Price, err)
		}
		cart.Items = append(cart.Items, domain.CartLine{
			ID:        lineID,
			ProductID: productID,
			Quantity:  l.Quantity,
			Price:     price,
			Variant:   domain.Variant{Size: l.Size, Color: l.Color},
			AddedAt:   l.AddedAt,
		})
	}
	return cart, nil
}

// GetByUserID retrieves the user's cart
func (r *CartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return doc.toDomain()
}

// Save upserts the cart document keyed by user. Id and created_at are set on first insert only.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"items":      toLineDocuments(cart.Items),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.New().String(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc cartDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": cart.UserID.String()}, update, opts).Decode(&doc)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	saved, err := doc.toDomain()
	if err != nil {
		return err
	}
	cart.ID = saved.ID
	cart.CreatedAt = saved.CreatedAt
	cart.UpdatedAt = saved.UpdatedAt
	if cart.Items == nil {
		cart.Items = []domain.CartLine{}
	}
	return nil
}

// DeleteByUserID removes the user's cart
func (r *CartRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID.String()})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
