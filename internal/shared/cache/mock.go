package cache

import (
	"context"
	"sync"
	"time"

	"court-admin/internal/shared/model"
)

// Mock 内存版 Cache，用于单元测试
type Mock struct {
	mu        sync.Mutex
	loginFail map[string]int64
	banners   []*model.Banner
	hasBanner bool
}

var _ Cache = (*Mock)(nil)

// NewMock 创建内存缓存
func NewMock() *Mock {
	return &Mock{loginFail: make(map[string]int64)}
}

func (m *Mock) IncrLoginFail(_ context.Context, ip string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginFail[ip]++
	return m.loginFail[ip], nil
}

func (m *Mock) GetLoginFails(_ context.Context, ip string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginFail[ip], nil
}

func (m *Mock) ResetLoginFail(_ context.Context, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loginFail, ip)
	return nil
}

func (m *Mock) GetBannerList(_ context.Context) ([]*model.Banner, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasBanner {
		return nil, false, nil
	}
	return m.banners, true, nil
}

func (m *Mock) SetBannerList(_ context.Context, banners []*model.Banner, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banners = banners
	m.hasBanner = true
	return nil
}

func (m *Mock) InvalidateBannerList(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banners = nil
	m.hasBanner = false
	return nil
}

func (m *Mock) Close() error { return nil }
