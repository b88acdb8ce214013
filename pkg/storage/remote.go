package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"agendasmart/pkg/messages"
)

var errRemoteDisabled = errors.New("remote table is not configured")

// RemoteClient wraps the remote table.
// The exported primitives never return errors: failures are logged and become false or nil.
type RemoteClient struct {
	table   RemoteTable
	ns      namespace
	timeout time.Duration
	logger  Logger
}

// NewRemoteClient creates the client. A nil table disables the remote side.
func NewRemoteClient(table RemoteTable, prefix string, timeout time.Duration, logger Logger) *RemoteClient {
	if logger == nil {
		logger = NopLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteClient{
		table:   table,
		ns:      namespace(prefix),
		timeout: timeout,
		logger:  logger,
	}
}

// Enabled reports whether a remote table is configured.
func (c *RemoteClient) Enabled() bool {
	return c != nil && c.table != nil
}

// Upsert stores value under key.
func (c *RemoteClient) Upsert(ctx context.Context, key string, value any) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Errorf(messages.SerializationFailed, key, err)
		return false
	}
	return c.upsertRaw(ctx, key, string(raw)) == nil
}

// Delete removes key.
func (c *RemoteClient) Delete(ctx context.Context, key string) bool {
	err := c.call(ctx, "delete", key, func(ctx context.Context) error {
		return c.table.Delete(ctx, c.ns.key(key))
	})
	return err == nil
}

// Fetch returns the normalized remote value of key, or nil.
func (c *RemoteClient) Fetch(ctx context.Context, key string) any {
	decoded, err := c.fetch(ctx, key)
	if err != nil {
		return nil
	}
	return decoded.Value
}

// ListKeys returns the logical keys of the remote table, or nil.
func (c *RemoteClient) ListKeys(ctx context.Context) []string {
	keys, err := c.listKeys(ctx)
	if err != nil {
		return nil
	}
	return keys
}

func (c *RemoteClient) upsertRaw(ctx context.Context, key string, raw string) error {
	return c.call(ctx, "upsert", key, func(ctx context.Context) error {
		return c.table.Upsert(ctx, c.ns.key(key), raw)
	})
}

// fetch is Fetch keeping transport errors apart from missing or broken payloads.
func (c *RemoteClient) fetch(ctx context.Context, key string) (Decoded, error) {
	var (
		raw   string
		found bool
	)
	err := c.call(ctx, "select", key, func(ctx context.Context) error {
		var err error
		raw, found, err = c.table.Select(ctx, c.ns.key(key))
		return err
	})
	if err != nil {
		return Decoded{}, err
	}
	if !found {
		return Decoded{Kind: Absent}, nil
	}

	decoded := DecodePayload(raw)
	payloadDecodes.WithLabelValues(decoded.Kind.String(), decoded.Rule).Inc()

	switch decoded.Kind {
	case Repaired:
		c.logger.Warnf("repaired remote payload for %s with rule %s", key, decoded.Rule)
	case Unrecoverable:
		c.logger.Errorf(messages.UnrecoverablePayload, key, raw)
	}

	return decoded, nil
}

func (c *RemoteClient) listKeys(ctx context.Context) ([]string, error) {
	var physical []string
	err := c.call(ctx, "keys", "*", func(ctx context.Context) error {
		var err error
		physical, err = c.table.Keys(ctx, string(c.ns))
		return err
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(physical))
	for _, k := range physical {
		if logical, ok := c.ns.logical(k); ok && logical != "" {
			keys = append(keys, logical)
		}
	}
	sort.Strings(keys)

	return keys, nil
}

// call runs one table operation with the client timeout, recording and logging failures.
// Panics from the table driver are turned into errors.
func (c *RemoteClient) call(ctx context.Context, operation, key string, fn func(ctx context.Context) error) (err error) {
	if !c.Enabled() {
		return errRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = errors.New("remote table panicked")
			c.logger.Errorf(messages.RemoteFailed, operation, key, r)
		}
		remoteOperations.WithLabelValues(operation, resultLabel(err == nil)).Inc()
	}()

	if err = fn(ctx); err != nil {
		c.logger.Errorf(messages.RemoteFailed, operation, key, err)
	}

	return err
}
