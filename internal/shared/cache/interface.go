// Package cache 缓存层抽象接口
//
// 提供临时状态和缓存的存取能力，当前由 Redis 实现。
// 缓存整体是可选的：组件接到 nil Cache 时必须退化为直连存储、不做限流。
package cache

import (
	"context"
	"time"

	"court-admin/internal/shared/model"
)

// LoginThrottleCache 登录失败限流计数
//
// 凭证本身从不缓存（认证路径每次直达存储），这里只记每个来源 IP 的
// 连续失败次数，用于登录接口的粗粒度限流。
type LoginThrottleCache interface {
	// IncrLoginFail 失败计数 +1 并返回当前值，首次写入时设置窗口 TTL
	IncrLoginFail(ctx context.Context, ip string, window time.Duration) (int64, error)

	// GetLoginFails 只读取当前窗口内的失败次数，键不存在时返回 0
	GetLoginFails(ctx context.Context, ip string) (int64, error)

	// ResetLoginFail 登录成功后清零
	ResetLoginFail(ctx context.Context, ip string) error
}

// BannerCache 首页横幅列表缓存
type BannerCache interface {
	GetBannerList(ctx context.Context) ([]*model.Banner, bool, error)
	SetBannerList(ctx context.Context, banners []*model.Banner, ttl time.Duration) error
	InvalidateBannerList(ctx context.Context) error
}

// Cache 缓存组合接口
type Cache interface {
	LoginThrottleCache
	BannerCache
	Close() error
}
