package redis

import (
	"context"
	"fmt"
	"time"
)

// TypedStore keeps values of type T as JSON under "<prefix>:<key>". An
// empty prefix uses the key as is.
type TypedStore[T any] struct {
	client *Client
	prefix string
}

func NewTypedStore[T any](client *Client, prefix string) *TypedStore[T] {
	return &TypedStore[T]{client: client, prefix: prefix}
}

func (s *TypedStore[T]) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Load returns nil without an error for missing or expired keys.
func (s *TypedStore[T]) Load(ctx context.Context, key string) (*T, error) {
	var v T
	switch err := s.client.GetJSON(ctx, s.key(key), &v); {
	case IsNil(err):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", s.key(key), err)
	}
	return &v, nil
}

// Save overwrites key. ttl <= 0 keeps the value until deleted.
func (s *TypedStore[T]) Save(ctx context.Context, key string, v *T, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.SetJSON(ctx, s.key(key), v, ttl); err != nil {
		return fmt.Errorf("save %s: %w", s.key(key), err)
	}
	return nil
}

func (s *TypedStore[T]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("delete %s: %w", s.key(key), err)
	}
	return nil
}
