package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"court-admin/internal/shared/cache"
	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

func newTestHandler(store *storage.MockStore) *Handler {
	cfg := testConfig()
	authn := NewAuthenticator(store, nil, cfg, logging.Discard())
	return NewHandler(authn, cfg, logging.Discard(), nil)
}

func doLogin(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()
	h.Login(w, req)
	return w
}

func TestLoginSuccess(t *testing.T) {
	store := storage.NewMockStore()
	seedStudent(t, store)
	h := newTestHandler(store)

	w := doLogin(t, h, `{"identifier":"64010001","password":"student-pass","type":"student_id"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.AccessToken == "" {
		t.Errorf("response = %+v", resp)
	}
	if resp.User == nil || resp.User.Role != "student" {
		t.Errorf("user = %+v", resp.User)
	}
	if resp.Session == nil || resp.Session.TimeoutMinutes != 30 || resp.Session.WarningMinutes != 5 {
		t.Errorf("session = %+v", resp.Session)
	}

	// 响应从不携带哈希字段
	if strings.Contains(w.Body.String(), "password_hash") || strings.Contains(w.Body.String(), "national_id_hash") {
		t.Error("response leaks credential hashes")
	}

	// 会话 Cookie 已设置且 HttpOnly
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value == "" {
		t.Fatalf("session cookie = %+v", cookie)
	}

	// Cookie 里的令牌能通过校验
	claims, err := ValidateToken(testConfig(), cookie.Value)
	if err != nil {
		t.Fatalf("cookie token invalid: %v", err)
	}
	if claims.Role != "student" {
		t.Errorf("claims = %+v", claims)
	}
}

// type 省略时服务端按输入形状自动判定
func TestLoginAutoClassify(t *testing.T) {
	store := storage.NewMockStore()
	seedStudent(t, store)
	seedAdmin(t, store)
	h := newTestHandler(store)

	if w := doLogin(t, h, `{"identifier":"64010001","password":"student-pass"}`); w.Code != http.StatusOK {
		t.Errorf("student auto-classify got %d: %s", w.Code, w.Body.String())
	}
	if w := doLogin(t, h, `{"identifier":"admin","password":"admin-pass"}`); w.Code != http.StatusOK {
		t.Errorf("admin auto-classify got %d: %s", w.Code, w.Body.String())
	}
}

// 身份证号登录时 identifier 可以是占位值，哈希比对走 original_identifier
func TestLoginNationalIDOriginalIdentifier(t *testing.T) {
	store := storage.NewMockStore()
	staff := seedStaff(t, store, "1103700012345")
	h := newTestHandler(store)

	w := doLogin(t, h, `{"identifier":"0000000000000","password":"staff-pass","type":"national_id","original_identifier":"1103700012345"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.User == nil || resp.User.ID != staff.ID {
		t.Errorf("user = %+v, want id %d", resp.User, staff.ID)
	}

	// 字段省略时退回 identifier 本身
	w = doLogin(t, h, `{"identifier":"1103700012345","password":"staff-pass","type":"national_id"}`)
	if w.Code != http.StatusOK {
		t.Errorf("fallback got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginErrorStatuses(t *testing.T) {
	store := storage.NewMockStore()
	u := seedStudent(t, store)
	suspended := seedStaff(t, store, "1103700012345")
	suspended.Status = model.UserStatusSuspended
	store.SeedUser(suspended)
	_ = u

	h := newTestHandler(store)

	tests := []struct {
		name string
		body string
		want int
		code string
	}{
		{"missing password", `{"identifier":"64010001","password":""}`, http.StatusBadRequest, "missing_fields"},
		{"bad format", `{"identifier":"123","password":"x","type":"student_id"}`, http.StatusBadRequest, "invalid_format"},
		{"unknown account", `{"identifier":"64019999","password":"x","type":"student_id"}`, http.StatusUnauthorized, "not_found"},
		{"wrong password", `{"identifier":"64010001","password":"nope","type":"student_id"}`, http.StatusUnauthorized, "invalid_password"},
		{"suspended", `{"identifier":"1103700012345","password":"staff-pass","type":"national_id"}`, http.StatusForbidden, "account_suspended"},
		{"malformed json", `{"identifier":`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doLogin(t, h, tt.body)
			if w.Code != tt.want {
				t.Fatalf("got %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			var resp map[string]any
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["error"] != tt.code {
				t.Errorf("error code = %v, want %s", resp["error"], tt.code)
			}
			if resp["message"] == "" || resp["message"] == nil {
				t.Error("missing user-facing message")
			}
		})
	}
}

// fakeLoginMetrics 捕获指标挂钩的调用
type fakeLoginMetrics struct {
	results []string
	issued  int
}

func (f *fakeLoginMetrics) RecordLoginAttempt(result string) { f.results = append(f.results, result) }
func (f *fakeLoginMetrics) SessionIssued(time.Duration)      { f.issued++ }

func TestLoginRecordsAttemptMetrics(t *testing.T) {
	store := storage.NewMockStore()
	seedStudent(t, store)
	cfg := testConfig()
	throttle := cache.NewMock()
	m := &fakeLoginMetrics{}
	h := NewHandler(NewAuthenticator(store, throttle, cfg, logging.Discard()),
		cfg, logging.Discard(), m)

	doLogin(t, h, `{"identifier":"64010001","password":"nope","type":"student_id"}`)
	doLogin(t, h, `{"identifier":"64010001","password":"student-pass","type":"student_id"}`)

	// doLogin 的来源 IP 固定，把失败计数推到阈值后再试一次
	for i := 0; i < cfg.MaxLoginFails; i++ {
		throttle.IncrLoginFail(context.Background(), "10.0.0.1", time.Minute)
	}
	doLogin(t, h, `{"identifier":"64010001","password":"student-pass","type":"student_id"}`)

	want := []string{"fail", "success", "throttled"}
	if len(m.results) != len(want) {
		t.Fatalf("results = %v, want %v", m.results, want)
	}
	for i := range want {
		if m.results[i] != want[i] {
			t.Errorf("results[%d] = %q, want %q", i, m.results[i], want[i])
		}
	}
	if m.issued != 1 {
		t.Errorf("sessions issued = %d, want 1", m.issued)
	}

	// 格式错误在触达认证器之前被拒绝，不算一次尝试
	doLogin(t, h, `{"identifier":"123","password":"x","type":"student_id"}`)
	if len(m.results) != len(want) {
		t.Errorf("malformed input counted as attempt: %v", m.results)
	}
}

func TestLogoutClearsCookieAndAudits(t *testing.T) {
	store := storage.NewMockStore()
	h := newTestHandler(store)

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{ID: 3, Username: "admin"}))
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}

	entries := store.AuditEntries()
	if len(entries) != 1 || entries[0].Action != model.AuditActionLogout {
		t.Errorf("audit entries = %+v", entries)
	}
}

// 未登录的登出也要成功（幂等清 Cookie），但不写审计
func TestLogoutWithoutSession(t *testing.T) {
	store := storage.NewMockStore()
	h := newTestHandler(store)

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest("POST", "/api/v1/auth/logout", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	if n := len(store.AuditEntries()); n != 0 {
		t.Errorf("expected no audit entries, got %d", n)
	}
}

func TestSessionMasksIdentifier(t *testing.T) {
	store := storage.NewMockStore()
	h := newTestHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/auth/session?mask=1", nil)
	req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{ID: 1, Username: "64010001", Name: "สมชาย", Role: "student"}))
	w := httptest.NewRecorder()
	h.Session(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "64010001") {
		t.Error("masked session still contains full identifier")
	}
	if !strings.Contains(body, "64****01") {
		t.Errorf("expected masked identifier in %s", body)
	}
}

func TestSessionUnauthenticated(t *testing.T) {
	store := storage.NewMockStore()
	h := newTestHandler(store)
	w := httptest.NewRecorder()
	h.Session(w, httptest.NewRequest("GET", "/api/v1/auth/session", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", w.Code)
	}
}

func TestMaskIdentifier(t *testing.T) {
	if got := MaskIdentifier("64010001"); got != "64****01" {
		t.Errorf("MaskIdentifier(64010001) = %q", got)
	}
	if got := MaskIdentifier("abc"); got != "***" {
		t.Errorf("MaskIdentifier(abc) = %q", got)
	}
	if got := MaskIdentifier("admin"); got != "ad*in" {
		t.Errorf("MaskIdentifier(admin) = %q", got)
	}
}

func TestEnsureAdminUser(t *testing.T) {
	store := storage.NewMockStore()
	ctx := context.Background()

	// 密码缺失且需要创建 → 报错
	if err := EnsureAdminUser(ctx, store, "root", "", logging.Discard()); err == nil {
		t.Error("expected error when bootstrap password missing")
	}

	if err := EnsureAdminUser(ctx, store, "root", "boot-pass", logging.Discard()); err != nil {
		t.Fatalf("EnsureAdminUser: %v", err)
	}
	u, err := store.GetUserByUsername(ctx, "root", model.AdminRoles)
	if err != nil || u == nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != model.UserRoleSuperAdmin || !u.IsActive() {
		t.Errorf("admin = %+v", u)
	}
	if !CheckPassword("boot-pass", u.PasswordHash) {
		t.Error("bootstrap password does not verify")
	}

	// 已存在时幂等，不重复创建也不改密码
	if err := EnsureAdminUser(ctx, store, "root", "other-pass", logging.Discard()); err != nil {
		t.Fatalf("EnsureAdminUser second call: %v", err)
	}
	users, _ := store.ListUsers(ctx)
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
	if !CheckPassword("boot-pass", users[0].PasswordHash) {
		t.Error("existing admin password changed")
	}
}
