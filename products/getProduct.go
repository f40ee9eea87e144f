package products

import (
	"context"
	"errors"
	"fmt"

	"shopfront/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog is the read-only product lookup the cart enriches lines from.
type Catalog interface {
	GetProductByID(ctx context.Context, id string) (models.Product, error)
}

// productDoc is the stored shape of a product in the catalog collection.
type productDoc struct {
	ProductID   string   `bson:"productid"`
	Name        string   `bson:"name"`
	Price       float64  `bson:"price"`
	Images      []string `bson:"images"`
	Category    string   `bson:"category"`
	Description string   `bson:"description"`
}

func (d productDoc) toModel() models.Product {
	return models.Product{
		ID:          d.ProductID,
		Name:        d.Name,
		Price:       decimal.NewFromFloat(d.Price),
		Images:      d.Images,
		Category:    d.Category,
		Description: d.Description,
	}
}

// MongoCatalog reads products from the hosted document database.
type MongoCatalog struct {
	collection *mongo.Collection
}

func NewMongoCatalog(collection *mongo.Collection) *MongoCatalog {
	return &MongoCatalog{collection: collection}
}

func (m *MongoCatalog) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	var doc productDoc
	err := m.collection.FindOne(ctx, bson.M{"productid": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	if doc.Price < 0 {
		return models.Product{}, fmt.Errorf("product %s has negative price", id)
	}
	return doc.toModel(), nil
}
