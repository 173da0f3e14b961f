package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
)

// testStore 创建测试用 Store，使用独立数据库避免污染
//
// 本地无 MongoDB 时整组测试跳过。
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	s, err := NewStore(uri, "court_admin_test")
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	ctx := context.Background()
	if err := s.db.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test database: %v", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close()
	})

	return s
}

func strPtr(s string) *string { return &s }

func newUser(role model.UserRole) *model.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.User{
		Name:         "Test User",
		Email:        "user@example.ac.th",
		PasswordHash: "$2a$04$fakehashfortestingonly",
		Role:         role,
		Status:       model.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	student := newUser(model.UserRoleStudent)
	student.StudentID = strPtr("64010001")
	if err := s.CreateUser(ctx, student); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if student.ID == 0 {
		t.Fatal("CreateUser 未分配 ID")
	}

	// counters 模拟自增：第二个用户 ID 递增
	admin := newUser(model.UserRoleAdmin)
	admin.Username = strPtr("admin")
	if err := s.CreateUser(ctx, admin); err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	if admin.ID <= student.ID {
		t.Errorf("admin.ID = %d, want > %d", admin.ID, student.ID)
	}

	// 重复学号触发唯一索引
	dup := newUser(model.UserRoleStudent)
	dup.StudentID = strPtr("64010001")
	if err := s.CreateUser(ctx, dup); err == nil {
		t.Error("重复学号未报错")
	}

	got, err := s.GetUserByStudentID(ctx, "64010001")
	if err != nil {
		t.Fatalf("GetUserByStudentID: %v", err)
	}
	if got == nil || got.ID != student.ID {
		t.Errorf("GetUserByStudentID = %+v", got)
	}

	// 不存在返回 (nil, nil)
	got, err = s.GetUserByStudentID(ctx, "64019999")
	if err != nil || got != nil {
		t.Errorf("miss = (%+v, %v), want (nil, nil)", got, err)
	}

	// 用户名查找限定角色集合
	got, err = s.GetUserByUsername(ctx, "admin", model.AdminRoles)
	if err != nil || got == nil {
		t.Fatalf("GetUserByUsername: (%+v, %v)", got, err)
	}
	got, err = s.GetUserByUsername(ctx, "admin", []model.UserRole{model.UserRoleStudent})
	if err != nil || got != nil {
		t.Errorf("角色集合外仍查到用户: %+v", got)
	}
}

func TestNationalIDCandidates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	staff := newUser(model.UserRoleStaff)
	staff.NationalIDHash = strPtr("$2a$04$staffhash")
	if err := s.CreateUser(ctx, staff); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	noHash := newUser(model.UserRoleStaff)
	if err := s.CreateUser(ctx, noHash); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	candidates, err := s.ListNationalIDCandidates(ctx, model.NationalIDRoles)
	if err != nil {
		t.Fatalf("ListNationalIDCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != staff.ID {
		t.Errorf("candidates = %+v, want 仅 staff", candidates)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u := newUser(model.UserRoleStudent)
	u.StudentID = strPtr("64010002")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := s.UpdateLastLogin(ctx, u.ID, at, "10.0.0.9"); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetUserByID: (%+v, %v)", got, err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}

	if err := s.UpdateLastLogin(ctx, 9999, at, "10.0.0.9"); err != storage.ErrNotFound {
		t.Errorf("不存在的 ID err = %v, want ErrNotFound", err)
	}
}

func TestAuditQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	uid := int64(7)
	entries := []*model.AuditLog{
		{UserID: &uid, UsernameInput: "64010001", Action: model.AuditActionLoginSuccess, IP: "10.0.0.1", CreatedAt: base},
		{UserID: &uid, UsernameInput: "64010001", Action: model.AuditActionLoginFail, IP: "10.0.0.1", CreatedAt: base.Add(time.Minute)},
		{UsernameInput: "admin", Action: model.AuditActionLogout, IP: "10.0.0.2", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := s.AppendAuditLog(ctx, e); err != nil {
			t.Fatalf("AppendAuditLog: %v", err)
		}
	}

	got, total, err := s.QueryAuditLogs(ctx, model.AuditQuery{})
	if err != nil {
		t.Fatalf("QueryAuditLogs: %v", err)
	}
	if total != 3 || len(got) != 3 {
		t.Fatalf("total = %d, len = %d, want 3/3", total, len(got))
	}
	// 时间倒序
	if got[0].Action != model.AuditActionLogout {
		t.Errorf("got[0].Action = %q, want logout", got[0].Action)
	}

	_, total, err = s.QueryAuditLogs(ctx, model.AuditQuery{UserID: &uid})
	if err != nil || total != 2 {
		t.Errorf("按用户过滤 total = %d, want 2", total)
	}

	got, total, err = s.QueryAuditLogs(ctx, model.AuditQuery{UsernameLike: "adm"})
	if err != nil || total != 1 || got[0].UsernameInput != "admin" {
		t.Errorf("子串匹配 total = %d, got = %+v", total, got)
	}
}

func TestRegexEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"admin", "admin"},
		{"a.b", `a\.b`},
		{"x(1)", `x\(1\)`},
		{"$^", `\$\^`},
	}
	for _, tt := range tests {
		if got := regexEscape(tt.in); got != tt.want {
			t.Errorf("regexEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
