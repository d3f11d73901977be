// Package mongo writes gene documents to a MongoDB collection.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/inodb/dcc-import/internal/document"
)

// DefaultBatchSize is the number of genes sent per InsertMany call.
const DefaultBatchSize = 500

// Config describes the target collection.
type Config struct {
	URI        string
	Database   string
	Collection string
	// Drop removes the collection before the first insert.
	Drop      bool
	BatchSize int
}

type insertFunc func(ctx context.Context, docs []any) error

// Writer buffers gene documents and inserts them in batches.
type Writer struct {
	client    *mongo.Client
	insert    insertFunc
	batchSize int
	pending   []any
	written   int64
}

// Open connects to MongoDB and prepares the target collection.
func Open(ctx context.Context, cfg Config) (*Writer, error) {
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("mongo database and collection are required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.URI, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s: %w", cfg.URI, err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	if cfg.Drop {
		if err := coll.Drop(ctx); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("drop collection %s: %w", cfg.Collection, err)
		}
	}

	w := newWriter(func(ctx context.Context, docs []any) error {
		_, err := coll.InsertMany(ctx, docs)
		return err
	}, cfg.BatchSize)
	w.client = client
	return w, nil
}

func newWriter(insert insertFunc, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{
		insert:    insert,
		batchSize: batchSize,
		pending:   make([]any, 0, batchSize),
	}
}

// Write buffers a gene document and inserts the buffer once it is full.
func (w *Writer) Write(ctx context.Context, g *document.Gene) error {
	w.pending = append(w.pending, g)
	if len(w.pending) < w.batchSize {
		return nil
	}
	return w.Flush(ctx)
}

// Flush inserts all buffered documents.
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := w.insert(ctx, w.pending); err != nil {
		return fmt.Errorf("insert %d genes: %w", len(w.pending), err)
	}
	w.written += int64(len(w.pending))
	w.pending = make([]any, 0, w.batchSize)
	return nil
}

// Written returns the number of documents inserted so far.
func (w *Writer) Written() int64 {
	return w.written
}

// Close disconnects the client. Unflushed documents are discarded.
func (w *Writer) Close(ctx context.Context) error {
	if w.client == nil {
		return nil
	}
	return w.client.Disconnect(ctx)
}
