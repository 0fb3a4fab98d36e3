package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/models"
)

const orderCacheTTL = 15 * time.Minute

// ErrCacheMiss is returned when no cached copy exists for the key.
var ErrCacheMiss = redis.Nil

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

// CacheOrder stores the full order, lines included, for hot reads.
func (r *RedisRepository) CacheOrder(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, orderKey(order.ID), data, orderCacheTTL).Err()
}

func (r *RedisRepository) GetOrderCache(ctx context.Context, orderID string) (*models.Order, error) {
	data, err := r.client.Get(ctx, orderKey(orderID)).Result()
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// InvalidateOrder drops the cached copy after a lifecycle transition.
func (r *RedisRepository) InvalidateOrder(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, orderKey(orderID)).Err()
}
