// internal/database/orders_mongo.go
package database

import (
	"context"
	"errors"
	"time"

	"po-bridge-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderStore keeps purchase-order lines in the purchase_orders collection.
type MongoOrderStore struct {
	coll *mongo.Collection
}

func NewMongoOrderStore(db *mongo.Database) *MongoOrderStore {
	return &MongoOrderStore{coll: db.Collection(OrdersCollection)}
}

// InsertBatch writes one supplier batch with a single InsertMany. IDs are assigned
// before the write so the returned lines are complete.
func (s *MongoOrderStore) InsertBatch(ctx context.Context, lines []models.PurchaseOrderLine) ([]models.PurchaseOrderLine, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	out := make([]models.PurchaseOrderLine, len(lines))
	docs := make([]interface{}, len(lines))
	for i, line := range lines {
		if line.ID.IsZero() {
			line.ID = primitive.NewObjectID()
		}
		out[i] = line
		docs[i] = line
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoOrderStore) FindByToken(ctx context.Context, token string) ([]models.PurchaseOrderLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"accessToken": token}, opts)
}

func (s *MongoOrderStore) FindByOwner(ctx context.Context, ownerID string) ([]models.PurchaseOrderLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"ownerID": ownerID}, opts)
}

func (s *MongoOrderStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.PurchaseOrderLine, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lines []models.PurchaseOrderLine
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.PurchaseOrderLine{}
	}
	return lines, nil
}

func (s *MongoOrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PurchaseOrderLine, error) {
	var line models.PurchaseOrderLine
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&line); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// MarkSubmitted stamps file metadata on a line, matching on both id and token.
func (s *MongoOrderStore) MarkSubmitted(ctx context.Context, id primitive.ObjectID, token string, status models.LineStatus, file models.SubmittedFile) (*models.PurchaseOrderLine, error) {
	filter := bson.M{"_id": id, "accessToken": token}
	update := bson.M{"$set": bson.M{
		"status":      status,
		"fileURL":     file.URL,
		"fileName":    file.Name,
		"contentType": file.ContentType,
		"submittedAt": file.At,
		"updatedAt":   file.At,
	}}
	return s.findOneAndUpdate(ctx, filter, update)
}

// UpdateFields applies a buyer edit to one owned line. Last writer wins.
func (s *MongoOrderStore) UpdateFields(ctx context.Context, id primitive.ObjectID, ownerID string, set map[string]interface{}, unset []string) (*models.PurchaseOrderLine, error) {
	fields := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}
	update := bson.M{"$set": fields}
	if len(unset) > 0 {
		drop := bson.M{}
		for _, k := range unset {
			drop[k] = ""
		}
		update["$unset"] = drop
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id, "ownerID": ownerID}, update)
}

func (s *MongoOrderStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.PurchaseOrderLine, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var line models.PurchaseOrderLine
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&line); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// Delete removes one owned line and reports whether it existed.
func (s *MongoOrderStore) Delete(ctx context.Context, id primitive.ObjectID, ownerID string) (bool, error) {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "ownerID": ownerID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
