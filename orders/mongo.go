package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userOrdersField holds an owner's order list inside the owner's document.
const userOrdersField = "userOrders"

// lineDoc and orderDoc are the stored shapes. Money is kept as a decimal
// string so nothing is lost to float conversion.
type lineDoc struct {
	ID        string `bson:"id"`
	Title     string `bson:"title"`
	Image     string `bson:"image,omitempty"`
	UnitPrice string `bson:"unitPrice"`
	Quantity  int    `bson:"quantity"`
}

type orderDoc struct {
	OrderID              string                `bson:"orderId"`
	PlacedAt             time.Time             `bson:"placedAt"`
	ExpectedDeliveryDate time.Time             `bson:"expectedDeliveryDate"`
	PaymentMethod        string                `bson:"paymentMethod"`
	PaymentReference     string                `bson:"paymentReference,omitempty"`
	TotalAmount          string                `bson:"totalAmount"`
	ItemCount            int                   `bson:"itemCount"`
	Items                []lineDoc             `bson:"items"`
	ShippingAddress      models.BillingDetails `bson:"shippingAddress"`
}

func toDoc(o models.Order) orderDoc {
	items := make([]lineDoc, len(o.Items))
	for i, it := range o.Items {
		items[i] = lineDoc{
			ID:        it.ID,
			Title:     it.Title,
			Image:     it.Image,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
		}
	}
	return orderDoc{
		OrderID:              o.OrderID,
		PlacedAt:             o.PlacedAt,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		PaymentMethod:        string(o.PaymentMethod),
		PaymentReference:     o.PaymentReference,
		TotalAmount:          o.TotalAmount.String(),
		ItemCount:            o.ItemCount,
		Items:                items,
		ShippingAddress:      o.ShippingAddress,
	}
}

// MongoStore keeps one document per owner: {_id: owner, userOrders: [...]}.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

func (s *MongoStore) Prepend(ctx context.Context, owner string, order models.Order) error {
	update := bson.M{
		"$push": bson.M{
			userOrdersField: bson.M{
				"$each":     []orderDoc{toDoc(order)},
				"$position": 0,
			},
		},
	}
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": owner}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to prepend order %s: %w", order.OrderID, err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, owner string) ([]models.Order, error) {
	raw, err := s.collection.FindOne(ctx, bson.M{"_id": owner}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []models.Order{}, nil
		}
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return decodeOrderList(raw), nil
}

// decodeOrderList reads the userOrders array out of an owner document. A
// missing or non-array field reads as no orders; entries that cannot be
// coerced into an Order are skipped.
func decodeOrderList(raw bson.Raw) []models.Order {
	out := []models.Order{}
	arr, ok := raw.Lookup(userOrdersField).ArrayOK()
	if !ok {
		return out
	}
	values, err := arr.Values()
	if err != nil {
		return out
	}
	for _, v := range values {
		doc, ok := v.DocumentOK()
		if !ok {
			continue
		}
		if o, ok := coerceOrder(doc); ok {
			out = append(out, o)
		}
	}
	return out
}

func coerceOrder(doc bson.Raw) (models.Order, bool) {
	var o models.Order

	id, ok := doc.Lookup("orderId").StringValueOK()
	if !ok || id == "" {
		return o, false
	}
	o.OrderID = id

	if o.PlacedAt, ok = doc.Lookup("placedAt").TimeOK(); !ok {
		return o, false
	}
	o.ExpectedDeliveryDate, _ = doc.Lookup("expectedDeliveryDate").TimeOK()

	method, _ := doc.Lookup("paymentMethod").StringValueOK()
	o.PaymentMethod = models.PaymentMethod(method)
	if !o.PaymentMethod.Valid() {
		return o, false
	}
	o.PaymentReference, _ = doc.Lookup("paymentReference").StringValueOK()

	if o.TotalAmount, ok = decimalValue(doc.Lookup("totalAmount")); !ok {
		return o, false
	}

	if items, ok := doc.Lookup("items").ArrayOK(); ok {
		o.Items = coerceLines(items)
	}

	count, ok := intValue(doc.Lookup("itemCount"))
	if !ok {
		for _, it := range o.Items {
			count += it.Quantity
		}
	}
	o.ItemCount = count

	addr, ok := doc.Lookup("shippingAddress").DocumentOK()
	if !ok {
		return o, false
	}
	if err := bson.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return o, false
	}
	return o, true
}

func coerceLines(arr bson.Raw) []models.CartLineItem {
	values, err := arr.Values()
	if err != nil {
		return nil
	}
	lines := make([]models.CartLineItem, 0, len(values))
	for _, v := range values {
		doc, ok := v.DocumentOK()
		if !ok {
			continue
		}
		id, _ := doc.Lookup("id").StringValueOK()
		price, okPrice := decimalValue(doc.Lookup("unitPrice"))
		qty, okQty := intValue(doc.Lookup("quantity"))
		if id == "" || !okPrice || !okQty || qty < 1 {
			continue
		}
		title, _ := doc.Lookup("title").StringValueOK()
		image, _ := doc.Lookup("image").StringValueOK()
		lines = append(lines, models.CartLineItem{
			ID:        id,
			Title:     title,
			Image:     image,
			UnitPrice: price,
			Quantity:  qty,
		})
	}
	return lines
}

// decimalValue accepts amounts stored as strings or as any BSON number.
func decimalValue(v bson.RawValue) (decimal.Decimal, bool) {
	if s, ok := v.StringValueOK(); ok {
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	if f, ok := v.DoubleOK(); ok {
		return decimal.NewFromFloat(f), true
	}
	if n, ok := intValue(v); ok {
		return decimal.NewFromInt(int64(n)), true
	}
	if d128, ok := v.Decimal128OK(); ok {
		d, err := decimal.NewFromString(d128.String())
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func intValue(v bson.RawValue) (int, bool) {
	if n, ok := v.Int32OK(); ok {
		return int(n), true
	}
	if n, ok := v.Int64OK(); ok {
		return int(n), true
	}
	if f, ok := v.DoubleOK(); ok && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}
