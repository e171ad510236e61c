// Package history is a write-only, non-authoritative analytics sink: it
// records what happened in a finished room for later reporting, the way
// the teacher's persist.Store records trades and snapshots. Nothing in
// internal/room or internal/simulator reads this data back — losing it
// never changes how a live game behaves.
package history

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bullpen/server/internal/room"
	"github.com/bullpen/server/internal/wire"
)

// PlayerRecord is one participant's final standing, as stored.
type PlayerRecord struct {
	ID     string  `bson:"id"`
	Name   string  `bson:"name"`
	Cash   float64 `bson:"cash"`
	Shares int64   `bson:"shares"`
	PnL    float64 `bson:"pnl"`
}

// GameRecord is the persisted shape of one finished game.
type GameRecord struct {
	RoomID       string         `bson:"room_id"`
	EndedAt      time.Time      `bson:"ended_at"`
	Players      []PlayerRecord `bson:"players"`
	Bots         []PlayerRecord `bson:"bots"`
	VolumeTraded float64        `bson:"volume_traded"`
	HighestPrice float64        `bson:"highest_price"`
	LowestPrice  float64        `bson:"lowest_price"`
}

// Store wraps the MongoDB client and database, grounded on the
// teacher's persist.Store connection/lifecycle shape.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logrus.Entry
}

// Connect dials uri and returns a Store. The URI should include the
// database name (e.g. mongodb://localhost:27017/bullpen); "bullpen" is
// used if the URI doesn't name one.
func Connect(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	dbName := "bullpen"
	if u, err := url.Parse(uri); err == nil {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			dbName = name
		}
	}

	log := logrus.WithField("component", "history")
	log.WithField("db", dbName).Info("connected to mongodb")
	return &Store{client: client, db: client.Database(dbName), log: log}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes history's queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection("games").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "ended_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("ensure history indexes: %w", err)
	}
	return nil
}

// RecordGame implements room.Recorder: it writes summary as one
// GameRecord document, logging but not propagating a write failure,
// since history is explicitly non-authoritative — a lost record must
// never affect the room that produced it.
func (s *Store) RecordGame(summary room.GameSummary) {
	rec := toRecord(summary)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.db.Collection("games").InsertOne(ctx, rec); err != nil {
		s.log.WithField("room_id", summary.RoomID).WithError(err).Warn("failed to record game summary")
	}
}

func toRecord(summary room.GameSummary) GameRecord {
	return GameRecord{
		RoomID:       summary.RoomID,
		EndedAt:      time.Now(),
		Players:      toPlayerRecords(summary.Players),
		Bots:         toPlayerRecords(summary.Bots),
		VolumeTraded: summary.VolumeTraded,
		HighestPrice: summary.HighestPrice,
		LowestPrice:  summary.LowestPrice,
	}
}

func toPlayerRecords(in []wire.PlayerResult) []PlayerRecord {
	out := make([]PlayerRecord, len(in))
	for i, p := range in {
		out[i] = PlayerRecord{ID: p.ID, Name: p.Name, Cash: p.Cash, Shares: p.Shares, PnL: p.PnL}
	}
	return out
}
