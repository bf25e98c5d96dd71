package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smartTask/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Cache — слой key-value поверх Redis. TTL обеспечивает сам Redis,
// никакой собственной очистки здесь нет. Кэш — оптимизация, а не
// источник истины: все ошибки наружу отдаются как есть, глушит их
// уже сервис.
type Cache struct {
	client *redis.Client
	prefix string
}

const Namespace = "task_service:"

// New подключается по redis URL и проверяет соединение.
func New(url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("разбор redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}

	logger.Info("Cache: Успешное подключение к Redis")
	return &Cache{client: client, prefix: Namespace}, nil
}

// NewWithClient оборачивает готовый клиент (используется в тестах).
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client, prefix: Namespace}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Get возвращает (false, nil) при промахе, значение десериализуется в dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("чтение из кэша: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("десериализация кэша: %w", err)
	}

	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация для кэша: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("запись в кэш: %w", err)
	}

	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("удаление из кэша: %w", err)
	}
	return nil
}

// DeleteMatching удаляет ключи по шаблону через SCAN. Снимок ключей
// best-effort: записанные параллельно ключи могут уцелеть.
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("scan по шаблону: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("удаление по шаблону: %w", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
