package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("key not found")

// Store is a key-value store with TTL semantics. Set always rewrites the
// full record; Get treats an expired record as absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type record struct {
	Key       string `bson:"_id"`
	Value     []byte `bson:"value"`
	ExpiresAt int64  `bson:"expires_at"` // unix seconds, 0 = no expiry
	UpdatedAt int64  `bson:"updated_at"`
}

type store struct {
	conn   *mongo.Client
	log    *zap.Logger
	dbname string
	url    string
	now    func() time.Time
}

func NewStore(ctx context.Context, log *zap.Logger, url, dbname string) (Store, error) {
	conn, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, err
	}

	return &store{
		conn:   conn,
		log:    log,
		dbname: dbname,
		url:    url,
		now:    time.Now,
	}, nil
}

func (s *store) reconnectToDB() error {
	if err := s.conn.Disconnect(context.Background()); err != nil {
		s.log.Warn("error disconnecting from database", zap.Error(err))
	}

	conn, err := mongo.Connect(context.Background(), options.Client().ApplyURI(s.url))
	if err != nil {
		return err
	}

	s.conn = conn
	return nil
}

func (s *store) collection() *mongo.Collection {
	if err := s.conn.Ping(context.Background(), nil); err != nil {
		s.log.Error("failed to ping database. reconnecting.", zap.Error(err))
		if reconnectErr := s.reconnectToDB(); reconnectErr != nil {
			s.log.Error("failed to reconnect to database", zap.Error(reconnectErr))
		}
	}
	return s.conn.Database(s.dbname).Collection("kv-cache")
}

func (s *store) Get(ctx context.Context, key string) ([]byte, error) {
	var rec record
	err := s.collection().FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if rec.ExpiresAt > 0 && s.now().Unix() >= rec.ExpiresAt {
		// Expired records read as absent. Removal is best-effort.
		if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": key}); err != nil {
			s.log.Warn("failed to remove expired record", zap.Error(err), zap.String("key", key))
		}
		return nil, ErrNotFound
	}

	return rec.Value, nil
}

func (s *store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	rec := record{
		Key:       key,
		Value:     value,
		UpdatedAt: now.Unix(),
	}
	if ttl > 0 {
		rec.ExpiresAt = now.Add(ttl).Unix()
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.collection().ReplaceOne(ctx, bson.M{"_id": key}, rec, opts)
	return err
}

func (s *store) Delete(ctx context.Context, key string) error {
	_, err := s.collection().DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (s *store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx, nil)
}

func (s *store) Close(ctx context.Context) error {
	return s.conn.Disconnect(ctx)
}
