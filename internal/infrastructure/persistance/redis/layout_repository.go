// Package redis provides Redis-backed implementations of repository interfaces
// for multi-instance deployments.
//
// Each layout is stored as a JSON document under "<prefix>layout:<id>".
// A set under "<prefix>layouts" indexes the stored IDs so listing does not
// need SCAN. Entries whose document expired are pruned from the index lazily.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/hapkiduki/boxpack/internal/domain/entity"
	"github.com/hapkiduki/boxpack/internal/domain/repository"
)

// DefaultKeyPrefix namespaces every key written by the repository.
const DefaultKeyPrefix = "boxpack:"

// Config contains Redis connection settings.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database.
	DB int

	// TTL expires layouts after the last write. Zero keeps them forever.
	TTL time.Duration

	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// LayoutRepository stores layouts in Redis.
type LayoutRepository struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewLayoutRepository connects to Redis and verifies the connection.
//
// Parameters:
//   - ctx: context for the initial ping
//   - cfg: connection settings
//
// Returns:
//   - *LayoutRepository: the connected repository
//   - error: wraps repository.ErrConnectionFailed if Redis is unreachable
func NewLayoutRepository(ctx context.Context, cfg Config) (*LayoutRepository, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrConnectionFailed, err)
	}
	return NewLayoutRepositoryWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewLayoutRepositoryWithClient wraps an existing client.
func NewLayoutRepositoryWithClient(client goredis.UniversalClient, prefix string, ttl time.Duration) *LayoutRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &LayoutRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *LayoutRepository) layoutKey(id uuid.UUID) string {
	return r.prefix + "layout:" + id.String()
}

func (r *LayoutRepository) indexKey() string {
	return r.prefix + "layouts"
}

func encode(l *entity.Layout) ([]byte, error) {
	data, err := json.Marshal(l.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*entity.Layout, error) {
	var s entity.LayoutSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	l, err := entity.LayoutFromSnapshot(s)
	if err != nil {
		return nil, fmt.Errorf("invalid stored layout %s: %w", s.ID, err)
	}
	return l, nil
}

func (r *LayoutRepository) Create(ctx context.Context, layout *entity.Layout) error {
	if layout == nil || layout.Root == nil {
		return repository.ErrInvalidInput
	}
	data, err := encode(layout)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, r.layoutKey(layout.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("create layout: %w", err)
	}
	if !ok {
		return repository.ErrDuplicateLayout
	}
	if err := r.client.SAdd(ctx, r.indexKey(), layout.ID.String()).Err(); err != nil {
		return fmt.Errorf("index layout: %w", err)
	}
	return nil
}

func (r *LayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Layout, error) {
	data, err := r.client.Get(ctx, r.layoutKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrLayoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return decode(data)
}

// Snapshot returns the stored document decoded but not validated.
func (r *LayoutRepository) Snapshot(ctx context.Context, id uuid.UUID) (entity.LayoutSnapshot, error) {
	var s entity.LayoutSnapshot
	data, err := r.client.Get(ctx, r.layoutKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return s, repository.ErrLayoutNotFound
	}
	if err != nil {
		return s, fmt.Errorf("get layout: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse layout: %w", err)
	}
	return s, nil
}

// Update writes layout if the stored version still matches. The check and
// the write run under WATCH so a concurrent writer aborts the transaction.
func (r *LayoutRepository) Update(ctx context.Context, layout *entity.Layout) error {
	if layout == nil || layout.Root == nil {
		return repository.ErrInvalidInput
	}
	key := r.layoutKey(layout.ID)
	next := layout.Version + 1

	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return repository.ErrLayoutNotFound
		}
		if err != nil {
			return err
		}

		var stored struct {
			Version int `json:"version"`
		}
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("parse layout: %w", err)
		}
		if stored.Version != layout.Version {
			return repository.ErrOptimisticLock
		}

		s := layout.Snapshot()
		s.Version = next
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal layout: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, goredis.TxFailedErr):
		return repository.ErrOptimisticLock
	case err != nil:
		if errors.Is(err, repository.ErrLayoutNotFound) || errors.Is(err, repository.ErrOptimisticLock) {
			return err
		}
		return fmt.Errorf("update layout: %w", err)
	}
	layout.Version = next
	return nil
}

func (r *LayoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.client.Del(ctx, r.layoutKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if err := r.client.SRem(ctx, r.indexKey(), id.String()).Err(); err != nil {
		return fmt.Errorf("unindex layout: %w", err)
	}
	if n == 0 {
		return repository.ErrLayoutNotFound
	}
	return nil
}

func (r *LayoutRepository) FindAll(ctx context.Context, filter repository.LayoutFilter) ([]*entity.Layout, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(all), nil
}

func (r *LayoutRepository) Count(ctx context.Context, filter repository.LayoutFilter) (int64, error) {
	all, err := r.all(ctx)
	if err != nil {
		return 0, err
	}
	filter.Limit, filter.Offset = 0, 0
	return int64(len(filter.Apply(all))), nil
}

func (r *LayoutRepository) all(ctx context.Context) ([]*entity.Layout, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	if len(ids) == 0 {
		return []*entity.Layout{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefix + "layout:" + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load layouts: %w", err)
	}

	out := make([]*entity.Layout, 0, len(values))
	var stale []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		l, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if len(stale) > 0 {
		if err := r.client.SRem(ctx, r.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune index: %w", err)
		}
	}
	return out, nil
}

// Ping checks that Redis is reachable.
func (r *LayoutRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *LayoutRepository) Close() error {
	return r.client.Close()
}

var _ repository.LayoutRepository = (*LayoutRepository)(nil)
