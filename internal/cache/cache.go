// Package cache keeps read-mostly data in Redis: the product catalog and
// per-user points balances.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

type Config struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	ProductTTL time.Duration
	BalanceTTL time.Duration
}

func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

type Cache struct {
	client     *redis.Client
	prefix     string
	productTTL time.Duration
	balanceTTL time.Duration
}

func New(client *redis.Client, cfg Config) *Cache {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "coffee"
	}
	if cfg.ProductTTL <= 0 {
		cfg.ProductTTL = 5 * time.Minute
	}
	if cfg.BalanceTTL <= 0 {
		cfg.BalanceTTL = time.Minute
	}

	return &Cache{
		client:     client,
		prefix:     cfg.KeyPrefix,
		productTTL: cfg.ProductTTL,
		balanceTTL: cfg.BalanceTTL,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) productKey(id int64) string {
	return fmt.Sprintf("%s:products:item:%d", c.prefix, id)
}

func (c *Cache) productListKey(filter domain.ProductFilter) string {
	return fmt.Sprintf("%s:products:list:%s:%t:%t", c.prefix, filter.Category, filter.AvailableOnly, filter.BundlesOnly)
}

func (c *Cache) balanceKey(userID string) string {
	return fmt.Sprintf("%s:points:balance:%s", c.prefix, userID)
}

func (c *Cache) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.getJSON(ctx, c.productListKey(filter), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Cache) SetProducts(ctx context.Context, filter domain.ProductFilter, products []domain.Product) error {
	return c.setJSON(ctx, c.productListKey(filter), products, c.productTTL)
}

func (c *Cache) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, c.productKey(id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Cache) SetProduct(ctx context.Context, product *domain.Product) error {
	return c.setJSON(ctx, c.productKey(product.ID), product, c.productTTL)
}

// InvalidateProducts drops every cached product and product list.
func (c *Cache) InvalidateProducts(ctx context.Context) error {
	pattern := c.prefix + ":products:*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan product keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete product keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *Cache) GetBalance(ctx context.Context, userID string) (int64, error) {
	val, err := c.client.Get(ctx, c.balanceKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, ErrMiss
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse cached balance: %w", err)
	}
	return balance, nil
}

func (c *Cache) SetBalance(ctx context.Context, userID string, balance int64) error {
	if err := c.client.Set(ctx, c.balanceKey(userID), balance, c.balanceTTL).Err(); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

func (c *Cache) DeleteBalance(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.balanceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, dst interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
