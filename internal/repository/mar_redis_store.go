package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/models"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
)

// MarRedisStore serves the MAR schedule published into Redis by the ward feed.
// Visits and items live under two keys that are always written and read in one MULTI/EXEC.
type MarRedisStore struct {
	client redis.Cmdable
	prefix string
	logger *zap.Logger
}

// NewMarRedisStore constructs the store. prefix namespaces the keys, e.g. "mar".
func NewMarRedisStore(client redis.Cmdable, prefix string, logger *zap.Logger) *MarRedisStore {
	if prefix == "" {
		prefix = "mar"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarRedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *MarRedisStore) visitsKey() string    { return s.prefix + ":visits" }
func (s *MarRedisStore) itemsKey() string     { return s.prefix + ":items" }
func (s *MarRedisStore) publishedKey() string { return s.prefix + ":published_at" }

// Snapshot reads both collections atomically. Missing keys mean nothing was published today.
func (s *MarRedisStore) Snapshot(ctx context.Context) (*models.MarSnapshot, error) {
	var visitsCmd, itemsCmd *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		visitsCmd = pipe.Get(ctx, s.visitsKey())
		itemsCmd = pipe.Get(ctx, s.itemsKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, upstreamUnavailable(err, "redis snapshot read failed")
	}

	visits := make([]models.Visit, 0)
	if err := decodeRedisValue(visitsCmd, &visits); err != nil {
		return nil, err
	}
	items := make([]models.MedicationItem, 0)
	if err := decodeRedisValue(itemsCmd, &items); err != nil {
		return nil, err
	}
	return &models.MarSnapshot{Visits: visits, Items: items, TakenAt: time.Now().UTC()}, nil
}

// MedicationItems returns the full published medication item collection.
func (s *MarRedisStore) MedicationItems(ctx context.Context) ([]models.MedicationItem, error) {
	items := make([]models.MedicationItem, 0)
	cmd := s.client.Get(ctx, s.itemsKey())
	if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return nil, upstreamUnavailable(err, "redis medication items read failed")
	}
	if err := decodeRedisValue(cmd, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Replace publishes a complete snapshot, swapping both collections atomically.
func (s *MarRedisStore) Replace(ctx context.Context, snapshot *models.MarSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot nil")
	}
	visits := snapshot.Visits
	if visits == nil {
		visits = []models.Visit{}
	}
	items := snapshot.Items
	if items == nil {
		items = []models.MedicationItem{}
	}
	visitsPayload, err := json.Marshal(visits)
	if err != nil {
		return fmt.Errorf("marshal visits: %w", err)
	}
	itemsPayload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal medication items: %w", err)
	}
	publishedAt := time.Now().UTC().Format(time.RFC3339)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.visitsKey(), visitsPayload, 0)
		pipe.Set(ctx, s.itemsKey(), itemsPayload, 0)
		pipe.Set(ctx, s.publishedKey(), publishedAt, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish snapshot: %w", err)
	}
	s.logger.Info("mar snapshot published",
		zap.String("prefix", s.prefix),
		zap.Int("visits", len(visits)),
		zap.Int("items", len(items)),
	)
	return nil
}

func decodeRedisValue(cmd *redis.StringCmd, dest interface{}) error {
	if cmd == nil {
		return nil
	}
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return upstreamUnavailable(err, "redis value read failed")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidUpstreamData.Code, appErrors.ErrInvalidUpstreamData.Status,
			fmt.Sprintf("decode %s", cmd.Args()[1]))
	}
	return nil
}

func upstreamUnavailable(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, message)
}
