package orders

import (
	"context"

	"kirana/db"
	"kirana/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoProducts implements ProductStore on the products collection. Stock
// moves only through conditional updates so two concurrent checkouts can
// never drive a count below zero.
type mongoProducts struct {
	col *mongo.Collection
}

func (m *mongoProducts) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	cursor, err := m.col.Find(ctx, bson.M{
		"productid": bson.M{"$in": ids},
		"is_active": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prods []models.Product
	if err := cursor.All(ctx, &prods); err != nil {
		return nil, err
	}
	return prods, nil
}

func (m *mongoProducts) DecrementStock(ctx context.Context, line StockLine) (bool, error) {
	var (
		filter bson.M
		update bson.M
		opts   *options.UpdateOptions
	)
	if line.VariantID != "" {
		filter = bson.M{
			"productid": line.ProductID,
			"variants": bson.M{"$elemMatch": bson.M{
				"variantid": line.VariantID,
				"sizes": bson.M{"$elemMatch": bson.M{
					"size":  line.Size,
					"stock": bson.M{"$gte": line.Quantity},
				}},
			}},
		}
		update = bson.M{"$inc": bson.M{"variants.$[v].sizes.$[s].stock": -line.Quantity}}
		opts = options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"v.variantid": line.VariantID},
				bson.M{"s.size": line.Size},
			},
		})
	} else {
		filter = bson.M{
			"productid": line.ProductID,
			"stock":     bson.M{"$gte": line.Quantity},
		}
		update = bson.M{"$inc": bson.M{"stock": -line.Quantity}}
		opts = options.Update()
	}

	res, err := m.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (m *mongoProducts) RestoreStock(ctx context.Context, line StockLine) error {
	if line.VariantID != "" {
		_, err := m.col.UpdateOne(ctx,
			bson.M{"productid": line.ProductID},
			bson.M{"$inc": bson.M{"variants.$[v].sizes.$[s].stock": line.Quantity}},
			options.Update().SetArrayFilters(options.ArrayFilters{
				Filters: []interface{}{
					bson.M{"v.variantid": line.VariantID},
					bson.M{"s.size": line.Size},
				},
			}),
		)
		return err
	}
	_, err := m.col.UpdateOne(ctx,
		bson.M{"productid": line.ProductID},
		bson.M{"$inc": bson.M{"stock": line.Quantity}},
	)
	return err
}

func (m *mongoProducts) AddSold(ctx context.Context, lines []StockLine) error {
	writes := make([]mongo.WriteModel, 0, len(lines))
	for _, line := range lines {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"productid": line.ProductID}).
			SetUpdate(bson.M{"$inc": bson.M{"total_sold": line.Quantity}}))
	}
	_, err := m.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

type mongoOrders struct {
	col *mongo.Collection
}

func (m *mongoOrders) Insert(ctx context.Context, o *models.Order) error {
	_, err := m.col.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return &ConflictError{Msg: "Order number collision, please retry"}
	}
	return err
}

func (m *mongoOrders) Delete(ctx context.Context, orderID string) error {
	_, err := m.col.DeleteOne(ctx, bson.M{"orderid": orderID})
	return err
}

// mongoCounters hands out per-key sequences via findAndModify upsert, one
// document per key in the counters collection.
type mongoCounters struct {
	col *mongo.Collection
}

func (m *mongoCounters) Next(ctx context.Context, key string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

// NewMongoService wires a Service to the shared collections.
func NewMongoService() *Service {
	return NewService(
		&mongoProducts{col: db.ProductsCollection},
		&mongoOrders{col: db.OrdersCollection},
		&mongoCounters{col: db.CountersCollection},
	)
}
