// Package mongo connects to the document store backend.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"casefile/internal/platform/config"
	dErrors "casefile/pkg/domain-errors"
)

// Client wraps a mongo client bound to one database.
type Client struct {
	*mongo.Client
	DB           *mongo.Database
	Transactions bool
}

// New connects to MongoDB and pings the primary.
func New(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetConnectTimeout(cfg.Timeout).SetServerSelectionTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return &Client{
		Client:       client,
		DB:           client.Database(cfg.Database),
		Transactions: cfg.Transactions,
	}, nil
}

// Health checks if the MongoDB connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.Disconnect(ctx)
}

// RunInTx runs fn inside a multi-document transaction when transactions are
// enabled. Otherwise fn runs directly and its writes are independent. A
// context already bound to a session joins that session.
func (c *Client) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !c.Transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := c.StartSession()
	if err != nil {
		return WrapErr("start mongo session", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return WrapErr("mongo transaction", err)
}
