// Package store persists deals and resale listings in MongoDB.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sjsage522/legodealworker/internal/catalog"
	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/logger"
	apperrors "sjsage522/legodealworker/pkg/errors"
)

const (
	DealsCollection = "dealabs"
	SalesCollection = "sales"

	stagingSuffix = "_staging"
)

// MongoStore reads and writes the deals and sales collections
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

// Connect opens a client on uri and checks the server answers
func Connect(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, apperrors.NewStore("", "failed to create mongo client", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.NewStore("", "mongo did not answer ping", err)
	}
	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
		log:    logger.ForStore(),
	}, nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ReplaceDeals swaps the whole deals collection for deals. The new set is
// written to a staging collection and renamed over the live one, so readers
// see either the previous set or the new one.
func (s *MongoStore) ReplaceDeals(ctx context.Context, deals []models.Deal) error {
	if len(deals) == 0 {
		if err := s.db.Collection(DealsCollection).Drop(ctx); err != nil {
			return apperrors.NewStore(DealsCollection, "failed to clear deals", err)
		}
		return nil
	}

	staging := s.db.Collection(DealsCollection + stagingSuffix)
	if err := staging.Drop(ctx); err != nil {
		return apperrors.NewStore(staging.Name(), "failed to reset staging collection", err)
	}

	docs := make([]interface{}, 0, len(deals))
	for _, d := range deals {
		docs = append(docs, d)
	}
	if _, err := staging.InsertMany(ctx, docs); err != nil {
		_ = staging.Drop(ctx)
		return apperrors.NewStore(staging.Name(), "failed to insert deals", err)
	}

	rename := bson.D{
		{Key: "renameCollection", Value: s.db.Name() + "." + staging.Name()},
		{Key: "to", Value: s.db.Name() + "." + DealsCollection},
		{Key: "dropTarget", Value: true},
	}
	if err := s.client.Database("admin").RunCommand(ctx, rename).Err(); err != nil {
		_ = staging.Drop(ctx)
		return apperrors.NewStore(DealsCollection, "failed to swap in new deals", err)
	}

	s.log.Info().Int("count", len(deals)).Msg("Deals collection replaced")
	return nil
}

// FindDeals returns one page of deals in insertion order
func (s *MongoStore) FindDeals(ctx context.Context, page, pageSize int) (models.Snapshot, error) {
	if page < 1 || pageSize < 1 {
		return models.EmptySnapshot(page, pageSize), nil
	}
	coll := s.db.Collection(DealsCollection)

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.Snapshot{}, apperrors.NewStore(DealsCollection, "failed to count deals", err)
	}

	snapshot := models.EmptySnapshot(page, pageSize)
	snapshot.Meta.TotalCount = int(total)
	snapshot.Meta.PageCount = catalog.PageCount(int(total), pageSize)
	if page > snapshot.Meta.PageCount {
		return snapshot, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(page-1) * int64(pageSize)).
		SetLimit(int64(pageSize))
	deals, err := findDeals(ctx, coll, bson.M{}, opts)
	if err != nil {
		return models.Snapshot{}, err
	}
	snapshot.Items = deals
	return snapshot, nil
}

// AllDeals returns every stored deal in insertion order
func (s *MongoStore) AllDeals(ctx context.Context) ([]models.Deal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findDeals(ctx, s.db.Collection(DealsCollection), bson.M{}, opts)
}

// FindDealByID returns the deal for a set id, or nil when there is none
func (s *MongoStore) FindDealByID(ctx context.Context, id string) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.Collection(DealsCollection).FindOne(ctx, bson.M{"id": id}).Decode(&deal)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStore(DealsCollection, "failed to find deal", err)
	}
	return &deal, nil
}

// salesDocument holds every stored listing of one product, so a refresh is a
// single-document write
type salesDocument struct {
	ProductID string        `bson:"productId"`
	Items     []models.Sale `bson:"items"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

// ReplaceSales swaps the stored sales of one product
func (s *MongoStore) ReplaceSales(ctx context.Context, productID string, sales []models.Sale) error {
	doc := salesDocument{
		ProductID: productID,
		Items:     make([]models.Sale, 0, len(sales)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, sale := range sales {
		sale.ProductID = productID
		doc.Items = append(doc.Items, sale)
	}

	_, err := s.db.Collection(SalesCollection).ReplaceOne(ctx,
		bson.M{"productId": productID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return apperrors.NewStore(SalesCollection, "failed to store sales", err)
	}
	return nil
}

// FindSales returns the sales of one product, most recently published first.
// Listings without a readable date come last. limit <= 0 means no limit.
func (s *MongoStore) FindSales(ctx context.Context, productID string, limit int) ([]models.Sale, error) {
	var doc salesDocument
	err := s.db.Collection(SalesCollection).FindOne(ctx, bson.M{"productId": productID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.Sale{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStore(SalesCollection, "failed to find sales", err)
	}

	sales := doc.Items
	if sales == nil {
		sales = []models.Sale{}
	}
	models.SortByRecent(sales)
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func findDeals(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]models.Deal, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.NewStore(coll.Name(), "failed to query deals", err)
	}
	defer cursor.Close(ctx)

	deals := []models.Deal{}
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, apperrors.NewStore(coll.Name(), "failed to decode deals", err)
	}
	return deals, nil
}
