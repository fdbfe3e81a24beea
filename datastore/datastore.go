// The datastore package provides a simple abstraction over Redis for storing
// and retrieving delimited-text documents. Documents are opaque string blobs
// to this package; composing and decoding them is the codec's concern.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/holmberd/go-csvbind/dockey"
)

var (
	ErrDocumentNotFound = errors.New("datastore: document not found")
)

// Client represents a datastore client for interacting with a document store.
// The client is safe for concurrent use.
type Client struct {
	rsClient *redis.Client
}

// NewClient creates a new instance of a Client.
func NewClient(rsClient *redis.Client) (*Client, error) {
	if rsClient == nil {
		return nil, errors.New("datastore: redis client must not be nil")
	}
	return &Client{
		rsClient: rsClient,
	}, nil
}

// GetRSClient returns the underlying Redis client.
//
// NOTE: This is an escape mechanism and should not be abused.
func (c *Client) GetRSClient() *redis.Client {
	return c.rsClient
}

// Put writes the document with the key to the store.
// If the key doesn't exist it's added, otherwise it's updated.
func (c *Client) Put(
	ctx context.Context,
	key *dockey.Key,
	doc string,
	expiration time.Duration,
) error {
	if key == nil {
		return nil // No-op for empty key.
	}
	if err := c.rsClient.Set(ctx, key.StoreKey(), doc, expiration).Err(); err != nil {
		return fmt.Errorf("datastore: failed to write document '%s': %w", key, err)
	}
	return nil
}

// Get retrieves the document associated with the key from the store.
// ErrDocumentNotFound is returned if the key is not found in the store.
func (c *Client) Get(ctx context.Context, key *dockey.Key) (string, error) {
	if key == nil {
		return "", nil // No-op for empty key.
	}
	doc, err := c.rsClient.Get(ctx, key.StoreKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrDocumentNotFound
		}
		return "", fmt.Errorf("datastore: %w", err)
	}
	return doc, nil
}

// Exists reports whether the document key exists in the store.
func (c *Client) Exists(ctx context.Context, key *dockey.Key) (bool, error) {
	if key == nil {
		return false, nil // No-op for empty key.
	}
	n, err := c.rsClient.Exists(ctx, key.StoreKey()).Result()
	if err != nil {
		return false, fmt.Errorf("datastore: %w", err)
	}
	return n > 0, nil
}

// Delete deletes the provided document keys from the store.
func (c *Client) Delete(ctx context.Context, keys ...*dockey.Key) error {
	if len(keys) == 0 {
		return nil // No-op for empty keys.
	}
	storeKeys := make([]string, len(keys))
	for i, key := range keys {
		storeKeys[i] = key.StoreKey()
	}
	if err := c.rsClient.Del(ctx, storeKeys...).Err(); err != nil {
		return fmt.Errorf("datastore: failed to delete documents: %w", err)
	}
	return nil
}

// DeleteMatch deletes all documents matching the key pattern.
//
// NOTE: This is a blocking operation.
func (c *Client) DeleteMatch(ctx context.Context, keyMatch *dockey.Key) error {
	if keyMatch == nil {
		return nil // No-op for empty key.
	}
	keys, err := c.ScanKeys(ctx, keyMatch)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil // No-op.
	}
	return c.Delete(ctx, keys...)
}

// ScanKeysWithCursor retrieves matching document keys using cursor pagination.
//   - Does not guarantee an exact number of keys returned per page.
//   - A given key may be returned multiple times.
//   - Keys added or removed during a full iteration may or may not be returned.
func (c *Client) ScanKeysWithCursor(
	ctx context.Context,
	cursor uint64,
	limit int,
	keyMatch *dockey.Key,
) (keys []*dockey.Key, nextCursor uint64, err error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	// The Redis SCAN command only offers limited guarantees about the exact
	// number of keys per call.
	storeKeys, nextCursor, err := c.rsClient.Scan(
		ctx,
		cursor,
		keyMatch.StoreKey(),
		int64(limit),
	).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("datastore: failed scanning for document keys: %w", err)
	}

	keys = make([]*dockey.Key, len(storeKeys))
	for i, storeKey := range storeKeys {
		key, err := dockey.Parse(storeKey)
		if err != nil {
			return nil, 0, fmt.Errorf("datastore: failed to parse document key: %w", err)
		}
		keys[i] = key
	}
	return keys, nextCursor, nil
}

// ScanKeys retrieves all matching document keys as a non-blocking operation.
// Safe for production use, but may miss keys added/removed during iteration.
func (c *Client) ScanKeys(ctx context.Context, keyMatch *dockey.Key) ([]*dockey.Key, error) {
	if keyMatch == nil {
		return nil, nil // No-op for empty key.
	}
	var keys []*dockey.Key
	cursor := uint64(0)
	for {
		page, nextCursor, err := c.ScanKeysWithCursor(ctx, cursor, 1000, keyMatch)
		if err != nil {
			return nil, err
		}
		keys = append(keys, page...)
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return keys, nil
}
