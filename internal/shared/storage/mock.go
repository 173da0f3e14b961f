package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"court-admin/internal/shared/model"
)

// MockStore 内存版 PersistentStore，用于单元测试
//
// 额外记录每个方法的调用次数（Calls），供"某路径不应触达存储"类断言使用。
type MockStore struct {
	mu    sync.Mutex
	users map[int64]*model.User
	audit []*model.AuditLog

	facilities map[int64]*model.Facility
	courts     map[int64]*model.Court
	banners    map[int64]*model.Banner

	nextUserID   int64
	nextAuditID  int64
	nextBannerID int64

	// Calls 各方法调用计数，key 为方法名
	Calls map[string]int

	// FailWith 非空时所有操作返回该错误，模拟存储不可达
	FailWith error
}

// NewMockStore 创建内存存储
func NewMockStore() *MockStore {
	return &MockStore{
		users:      make(map[int64]*model.User),
		facilities: make(map[int64]*model.Facility),
		courts:     make(map[int64]*model.Court),
		banners:    make(map[int64]*model.Banner),
		Calls:      make(map[string]int),
	}
}

func (m *MockStore) record(method string) error {
	m.Calls[method]++
	return m.FailWith
}

// CallCount 返回某方法的调用次数
func (m *MockStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// StoreCalls 返回所有存储方法的调用总数
func (m *MockStore) StoreCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

// ============================================================================
// UserStore
// ============================================================================

func (m *MockStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateUser"); err != nil {
		return err
	}
	for _, u := range m.users {
		if user.Username != nil && u.Username != nil && *u.Username == *user.Username {
			return ErrDuplicate
		}
		if user.StudentID != nil && u.StudentID != nil && *u.StudentID == *user.StudentID {
			return ErrDuplicate
		}
	}
	m.nextUserID++
	user.ID = m.nextUserID
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MockStore) GetUserByStudentID(_ context.Context, studentID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetUserByStudentID"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.StudentID != nil && *u.StudentID == studentID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) GetUserByUsername(_ context.Context, username string, roles []model.UserRole) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetUserByUsername"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username != nil && *u.Username == username && roleIn(u.Role, roles) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) ListNationalIDCandidates(_ context.Context, roles []model.UserRole) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListNationalIDCandidates"); err != nil {
		return nil, err
	}
	var out []*model.User
	for _, u := range m.users {
		if u.NationalIDHash != nil && roleIn(u.Role, roles) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) UpdateLastLogin(_ context.Context, id int64, at time.Time, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateLastLogin"); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &at
	u.LastLoginIP = &ip
	return nil
}

func (m *MockStore) UpdateUserStatus(_ context.Context, id int64, status model.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateUserStatus"); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MockStore) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateUserPassword"); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MockStore) ListUsers(_ context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListUsers"); err != nil {
		return nil, err
	}
	var out []*model.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ============================================================================
// AuditStore
// ============================================================================

func (m *MockStore) AppendAuditLog(_ context.Context, entry *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AppendAuditLog"); err != nil {
		return err
	}
	m.nextAuditID++
	entry.ID = m.nextAuditID
	cp := *entry
	m.audit = append(m.audit, &cp)
	return nil
}

func (m *MockStore) QueryAuditLogs(_ context.Context, q model.AuditQuery) ([]*model.AuditLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("QueryAuditLogs"); err != nil {
		return nil, 0, err
	}
	q.Normalize()
	var matched []*model.AuditLog
	for _, e := range m.audit {
		if q.Action != "" && e.Action != q.Action {
			continue
		}
		if q.UserID != nil && (e.UserID == nil || *e.UserID != *q.UserID) {
			continue
		}
		if q.UsernameLike != "" && !strings.Contains(e.UsernameInput, q.UsernameLike) {
			continue
		}
		if q.From != nil && e.CreatedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && e.CreatedAt.After(*q.To) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start >= total {
		return []*model.AuditLog{}, total, nil
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// AuditEntries 返回全部审计条目（仅测试断言用）
func (m *MockStore) AuditEntries() []*model.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.AuditLog, 0, len(m.audit))
	for _, e := range m.audit {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// ============================================================================
// FacilityStore
// ============================================================================

func (m *MockStore) ListFacilities(_ context.Context) ([]*model.Facility, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListFacilities"); err != nil {
		return nil, err
	}
	var out []*model.Facility
	for _, f := range m.facilities {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) ListCourtsByFacility(_ context.Context, facilityID int64) ([]*model.Court, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListCourtsByFacility"); err != nil {
		return nil, err
	}
	var out []*model.Court
	for _, c := range m.courts {
		if c.FacilityID == facilityID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) CreateBanner(_ context.Context, banner *model.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateBanner"); err != nil {
		return err
	}
	m.nextBannerID++
	banner.ID = m.nextBannerID
	cp := *banner
	m.banners[banner.ID] = &cp
	return nil
}

func (m *MockStore) GetBanner(_ context.Context, id int64) (*model.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetBanner"); err != nil {
		return nil, err
	}
	b, ok := m.banners[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *MockStore) ListBanners(_ context.Context, activeOnly bool) ([]*model.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListBanners"); err != nil {
		return nil, err
	}
	var out []*model.Banner
	for _, b := range m.banners {
		if activeOnly && !b.Active {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockStore) UpdateBanner(_ context.Context, banner *model.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateBanner"); err != nil {
		return err
	}
	if _, ok := m.banners[banner.ID]; !ok {
		return ErrNotFound
	}
	cp := *banner
	m.banners[banner.ID] = &cp
	return nil
}

func (m *MockStore) DeleteBanner(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteBanner"); err != nil {
		return err
	}
	if _, ok := m.banners[id]; !ok {
		return ErrNotFound
	}
	delete(m.banners, id)
	return nil
}

// Close 实现 PersistentStore
func (m *MockStore) Close() error { return nil }

// SeedUser 直接写入一个用户（仅测试用，绕过计数）
func (m *MockStore) SeedUser(user *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		m.nextUserID++
		user.ID = m.nextUserID
	} else if user.ID > m.nextUserID {
		m.nextUserID = user.ID
	}
	cp := *user
	m.users[user.ID] = &cp
	return user
}

// SeedFacility 直接写入一个场馆（仅测试用，绕过计数）
func (m *MockStore) SeedFacility(f *model.Facility) *model.Facility {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		f.ID = int64(len(m.facilities) + 1)
	}
	cp := *f
	m.facilities[f.ID] = &cp
	return f
}

// SeedCourt 直接写入一个场地（仅测试用，绕过计数）
func (m *MockStore) SeedCourt(c *model.Court) *model.Court {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = int64(len(m.courts) + 1)
	}
	cp := *c
	m.courts[c.ID] = &cp
	return c
}

func roleIn(role model.UserRole, roles []model.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
