package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/okian/recomodel/internal/domain/interaction"
)

// Collection names of the shop database.
const (
	usersCollection        = "users"
	productsCollection     = "products"
	interactionsCollection = "interactions"
	activeStatus           = "active"
)

// Mongo reads interactions from the shop's MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// interactionDoc mirrors documents in the interactions collection. Ids may be
// stored as ObjectIDs or strings, and weight may be missing.
type interactionDoc struct {
	UserID    bson.RawValue `bson:"userId"`
	ProductID bson.RawValue `bson:"productId"`
	Action    string        `bson:"action"`
	Weight    bson.RawValue `bson:"weight"`
}

// OpenMongo connects to the database named in uri. The driver connects
// lazily, so an unreachable server surfaces on the first Count or Fetch.
func OpenMongo(ctx context.Context, uri string, timeout time.Duration) (*Mongo, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: parse mongo uri: %w", interaction.ErrUnavailable, err)
	}
	if cs.Database == "" {
		return nil, fmt.Errorf("%w: mongo uri names no database", interaction.ErrUnavailable)
	}

	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetServerSelectionTimeout(timeout).SetConnectTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongo: %w", interaction.ErrUnavailable, err)
	}
	return &Mongo{client: client, db: client.Database(cs.Database)}, nil
}

// Count returns the number of users or active products.
func (m *Mongo) Count(ctx context.Context, kind interaction.Kind) (int, error) {
	coll, filter := usersCollection, bson.D{}
	if kind == interaction.Items {
		coll, filter = productsCollection, bson.D{{Key: "status", Value: activeStatus}}
	}
	n, err := m.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", interaction.ErrUnavailable, coll, err)
	}
	return int(n), nil
}

// Fetch reads every interaction document.
func (m *Mongo) Fetch(ctx context.Context) ([]interaction.Raw, error) {
	projection := bson.D{
		{Key: "userId", Value: 1},
		{Key: "productId", Value: 1},
		{Key: "action", Value: 1},
		{Key: "weight", Value: 1},
	}
	cur, err := m.db.Collection(interactionsCollection).Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("%w: find interactions: %w", interaction.ErrUnavailable, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []interaction.Raw
	for cur.Next(ctx) {
		var doc interactionDoc
		if err := cur.Decode(&doc); err != nil {
			// Undecodable documents are skipped like any malformed record.
			continue
		}
		out = append(out, doc.raw())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: read interactions: %w", interaction.ErrUnavailable, err)
	}
	return out, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (d interactionDoc) raw() interaction.Raw {
	action := interaction.ParseAction(d.Action)
	weight, ok := numeric(d.Weight)
	if !ok {
		weight = action.DefaultWeight()
	}
	return interaction.Raw{
		ActorID: idString(d.UserID),
		ItemID:  idString(d.ProductID),
		Action:  action,
		Weight:  weight,
	}
}

// idString renders an ObjectID, string or integer id. Anything else is empty
// and the record is later skipped.
func idString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bson.TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	default:
		return ""
	}
}

func numeric(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bson.TypeDouble:
		return v.Double(), true
	case bson.TypeInt32:
		return float64(v.Int32()), true
	case bson.TypeInt64:
		return float64(v.Int64()), true
	default:
		return 0, false
	}
}
