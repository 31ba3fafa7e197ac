package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog/internal/models"
)

type MongoProductStore struct {
	coll *mongo.Collection
}

func NewMongoProductStore(db *mongo.Database) *MongoProductStore {
	return &MongoProductStore{coll: db.Collection("products")}
}

func (s *MongoProductStore) Insert(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	_, err := s.coll.InsertOne(ctx, product)
	return err
}

func (s *MongoProductStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var product models.Product
	err = s.coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	normalizeProduct(&product)
	return &product, nil
}

func (s *MongoProductStore) ListByOwner(ctx context.Context, owner primitive.ObjectID, published *bool) ([]models.Product, error) {
	filter := bson.M{"createdBy": owner}
	if published != nil {
		filter["isPublished"] = *published
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeProducts(ctx, cursor)
}

func (s *MongoProductStore) Replace(ctx context.Context, product *models.Product) error {
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now()
	}
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		normalizeProduct(&p)
		products = append(products, p)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// normalizeProduct fills defaults missing from documents written by older clients.
func normalizeProduct(p *models.Product) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.ExchangeEligibility == "" {
		p.ExchangeEligibility = models.ExchangeNo
	}
}
