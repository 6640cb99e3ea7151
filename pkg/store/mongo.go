package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// Default MongoDB names.
const (
	DefaultDatabase   = "gridlookout"
	DefaultCollection = "snapshots"
)

// snapshotDoc is the MongoDB representation of a snapshot. The schema is
// kept as its canonical JSON document so cell order and names survive
// exactly.
type snapshotDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Hash      string    `bson:"hash"`
	CreatedAt time.Time `bson:"created_at"`
	Document  string    `bson:"document"`
	// Parent is set only by conditional saves. A unique index on
	// (name, parent) lets one conditional save per parent win.
	Parent    *string   `bson:"parent,omitempty"`
}

func (d snapshotDoc) toSnapshot() (Snapshot, error) {
	s, err := decodeSchema([]byte(d.Document))
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", d.ID, err)
	}
	return Snapshot{ID: d.ID, Name: d.Name, Hash: d.Hash, CreatedAt: d.CreatedAt, Schema: s}, nil
}

// MongoStore persists snapshots in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
	now    func() time.Time
}

// MongoOption configures a MongoStore.
type MongoOption func(*mongoConfig)

type mongoConfig struct {
	database   string
	collection string
}

// WithDatabase sets the database name (default "gridlookout").
func WithDatabase(name string) MongoOption {
	return func(c *mongoConfig) { c.database = name }
}

// WithCollection sets the collection name (default "snapshots").
func WithCollection(name string) MongoOption {
	return func(c *mongoConfig) { c.collection = name }
}

// NewMongoStore connects to uri, verifies the connection and ensures the
// (name, created_at) index exists. Close disconnects the client.
func NewMongoStore(ctx context.Context, uri string, opts ...MongoOption) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	st, err := NewMongoStoreFromClient(ctx, client, opts...)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	st.owned = true
	return st, nil
}

// NewMongoStoreFromClient uses an existing client. Close leaves the client
// connected.
func NewMongoStoreFromClient(ctx context.Context, client *mongo.Client, opts ...MongoOption) (*MongoStore, error) {
	cfg := mongoConfig{database: DefaultDatabase, collection: DefaultCollection}
	for _, opt := range opts {
		opt(&cfg)
	}
	coll := client.Database(cfg.database).Collection(cfg.collection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "parent", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"parent": bson.M{"$exists": true}}),
	})
	if err != nil {
		return nil, fmt.Errorf("create parent index: %w", err)
	}
	return &MongoStore{client: client, coll: coll, now: time.Now}, nil
}

// Save implements Store.
func (m *MongoStore) Save(ctx context.Context, name string, s *schema.Schema, opts ...SaveOption) (Snapshot, error) {
	cfg := newSaveConfig(opts)
	snap, doc, err := newSnapshot(name, s, m.now(), cfg)
	if err != nil {
		return Snapshot{}, err
	}
	if cfg.parent != nil {
		var latest string
		cur, err := m.Latest(ctx, name)
		switch {
		case err == nil:
			latest = cur.ID
		case !glerr.Is(err, glerr.ErrCodeNotFound):
			return Snapshot{}, err
		}
		if err := cfg.checkParent(name, latest); err != nil {
			return Snapshot{}, err
		}
	}

	_, err = m.coll.InsertOne(ctx, snapshotDoc{
		ID:        snap.ID,
		Name:      snap.Name,
		Hash:      snap.Hash,
		CreatedAt: snap.CreatedAt,
		Document:  string(doc),
		Parent:    cfg.parent,
	})
	if mongo.IsDuplicateKeyError(err) {
		return Snapshot{}, conflict(name)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}

// Latest implements Store.
func (m *MongoStore) Latest(ctx context.Context, name string) (Snapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return m.findOne(ctx, bson.M{"name": name}, opts, "no snapshot of schema %q", name)
}

// Get implements Store.
func (m *MongoStore) Get(ctx context.Context, id string) (Snapshot, error) {
	return m.findOne(ctx, bson.M{"_id": id}, nil, "snapshot %q not found", id)
}

func (m *MongoStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions, notFoundFmt, arg string) (Snapshot, error) {
	var doc snapshotDoc
	var err error
	if opts != nil {
		err = m.coll.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = m.coll.FindOne(ctx, filter).Decode(&doc)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Snapshot{}, notFound(notFoundFmt, arg)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("find snapshot: %w", err)
	}
	return doc.toSnapshot()
}

// List implements Store.
func (m *MongoStore) List(ctx context.Context, name string, limit int) ([]Snapshot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(listLimit(limit)))
	cur, err := m.coll.Find(ctx, bson.M{"name": name}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var docs []snapshotDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]Snapshot, 0, len(docs))
	for _, d := range docs {
		snap, err := d.toSnapshot()
		if err != nil {
			return nil, glerr.Wrap(glerr.ErrCodeInternal, err, "decode stored snapshot")
		}
		out = append(out, snap)
	}
	return out, nil
}

// Close disconnects the client if the store created it.
func (m *MongoStore) Close(ctx context.Context) error {
	if !m.owned {
		return nil
	}
	return m.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
