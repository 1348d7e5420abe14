// Package mongodb stores the community backend's accounts, chats and
// messages in MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/virevo/virevo/internal/config"
)

// Collection names.
const (
	AccountsCollection = "users"
	ChatsCollection    = "chats"
	MessagesCollection = "messages"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// Client is a connected MongoDB database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Connect opens a connection and verifies it with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*Client, error) {
	log := logger.With("component", "mongodb")

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("Connected to MongoDB", "database", cfg.Database)
	return &Client{client: client, db: client.Database(cfg.Database), logger: log}, nil
}

// Accounts returns the account repository.
func (c *Client) Accounts() *Accounts {
	return NewAccounts(c.db.Collection(AccountsCollection))
}

// Chats returns the chat repository.
func (c *Client) Chats() *Chats {
	return NewChats(c.db.Collection(ChatsCollection), c.db.Collection(MessagesCollection))
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the repositories rely on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		AccountsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "anonymousName", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		ChatsCollection: {
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updatedAt", Value: -1}}},
		},
		MessagesCollection: {
			{Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := c.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	c.logger.InfoContext(ctx, "MongoDB indexes ensured")
	return nil
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
