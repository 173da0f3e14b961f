// Package redis 基于 Redis 的缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"court-admin/internal/shared/cache"
	"court-admin/internal/shared/model"
)

const (
	keyLoginFailPrefix = "court:login_fail:"
	keyBannerList      = "court:banners:active"
)

// Store Redis 缓存实现
type Store struct {
	client *redis.Client
}

var _ cache.Cache = (*Store)(nil)

// NewStore 从 URL 创建 Redis 缓存
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreFromClient 复用已有连接创建缓存（测试用）
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// ============================================================================
// LoginThrottleCache
// ============================================================================

// IncrLoginFail 失败计数 +1，首次写入时设置窗口 TTL
func (s *Store) IncrLoginFail(ctx context.Context, ip string, window time.Duration) (int64, error) {
	key := keyLoginFailPrefix + ip
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		// 新窗口，设置过期；Expire 失败不影响计数结果
		s.client.Expire(ctx, key, window)
	}
	return n, nil
}

// GetLoginFails 只读当前失败计数，键不存在时返回 0
func (s *Store) GetLoginFails(ctx context.Context, ip string) (int64, error) {
	n, err := s.client.Get(ctx, keyLoginFailPrefix+ip).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// ResetLoginFail 清零失败计数
func (s *Store) ResetLoginFail(ctx context.Context, ip string) error {
	return s.client.Del(ctx, keyLoginFailPrefix+ip).Err()
}

// ============================================================================
// BannerCache
// ============================================================================

// GetBannerList 读取横幅列表缓存，未命中时返回 (nil, false, nil)
func (s *Store) GetBannerList(ctx context.Context) ([]*model.Banner, bool, error) {
	data, err := s.client.Get(ctx, keyBannerList).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var banners []*model.Banner
	if err := json.Unmarshal(data, &banners); err != nil {
		// 缓存内容损坏按未命中处理，同时清掉脏数据
		s.client.Del(ctx, keyBannerList)
		return nil, false, nil
	}
	return banners, true, nil
}

// SetBannerList 写入横幅列表缓存
func (s *Store) SetBannerList(ctx context.Context, banners []*model.Banner, ttl time.Duration) error {
	data, err := json.Marshal(banners)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyBannerList, data, ttl).Err()
}

// InvalidateBannerList 使横幅列表缓存失效
func (s *Store) InvalidateBannerList(ctx context.Context) error {
	return s.client.Del(ctx, keyBannerList).Err()
}
