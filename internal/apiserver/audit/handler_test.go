package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *storage.MockStore) {
	t.Helper()
	store := storage.NewMockStore()
	return NewHandler(store, logging.Discard()), store
}

func seedEntry(t *testing.T, store *storage.MockStore, userID *int64, input string,
	action model.AuditAction, at time.Time) {
	t.Helper()
	err := store.AppendAuditLog(context.Background(), &model.AuditLog{
		UserID:        userID,
		UsernameInput: input,
		Action:        action,
		IP:            "10.0.0.1",
		CreatedAt:     at,
	})
	if err != nil {
		t.Fatalf("AppendAuditLog: %v", err)
	}
}

func doQuery(t *testing.T, h *Handler, rawQuery string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v: %s", err, rec.Body.String())
	}
	return rec, body
}

func totalOf(t *testing.T, body map[string]json.RawMessage) int {
	t.Helper()
	var total int
	if err := json.Unmarshal(body["total"], &total); err != nil {
		t.Fatalf("total 字段缺失: %s", body)
	}
	return total
}

func TestQueryAll(t *testing.T) {
	h, store := newTestHandler(t)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	uid := int64(3)
	seedEntry(t, store, &uid, "64010001", model.AuditActionLoginSuccess, base)
	seedEntry(t, store, nil, "99999999", model.AuditActionLoginFail, base.Add(time.Minute))

	rec, body := doQuery(t, h, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := totalOf(t, body); got != 2 {
		t.Errorf("total = %d, want 2", got)
	}

	var entries []*model.AuditLog
	if err := json.Unmarshal(body["entries"], &entries); err != nil {
		t.Fatalf("entries 解析失败: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d 条, want 2", len(entries))
	}
}

func TestQueryFilters(t *testing.T) {
	h, store := newTestHandler(t)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	uid := int64(3)
	seedEntry(t, store, &uid, "64010001", model.AuditActionLoginSuccess, base)
	seedEntry(t, store, &uid, "64010001", model.AuditActionLoginFail, base.Add(time.Minute))
	seedEntry(t, store, nil, "admin", model.AuditActionLogout, base.Add(2*time.Minute))

	tests := []struct {
		name      string
		query     string
		wantTotal int
	}{
		{"按动作", "action=login_fail", 1},
		{"按用户", "user_id=3", 2},
		{"子串匹配", "q=adm", 1},
		{"时间窗口", "from=2026-02-01T08:00:30Z&to=2026-02-01T08:01:30Z", 1},
		{"分页", "page=2&per_page=2", 3},
		{"无匹配", "action=login_fail&q=admin", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doQuery(t, h, tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := totalOf(t, body); got != tt.wantTotal {
				t.Errorf("total = %d, want %d", got, tt.wantTotal)
			}
		})
	}
}

func TestQueryEmptyResultIsArray(t *testing.T) {
	h, _ := newTestHandler(t)
	rec, _ := doQuery(t, h, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// 空结果必须是 [] 而不是 null，前端依赖这一点
	var body struct {
		Entries []*model.AuditLog `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if body.Entries == nil {
		t.Error("entries 为 null, want []")
	}
}

func TestQueryBadParams(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name  string
		query string
	}{
		{"user_id 非数字", "user_id=abc"},
		{"from 非 RFC3339", "from=yesterday"},
		{"to 非 RFC3339", "to=2026-02-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doQuery(t, h, tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestQueryStoreError(t *testing.T) {
	h, store := newTestHandler(t)
	store.FailWith = context.DeadlineExceeded

	rec, _ := doQuery(t, h, "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
