package banner

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"court-admin/internal/shared/cache"
	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

// newTestMux 构建测试路由
//
// 图片客户端传 nil：测试只覆盖不触达对象存储的路径
//（列表、元数据更新、无图删除、参数校验）。
func newTestMux(t *testing.T, bannerCache cache.BannerCache) (*http.ServeMux, *storage.MockStore) {
	t.Helper()
	store := storage.NewMockStore()
	mux := http.NewServeMux()
	NewHandler(store, nil, bannerCache, logging.Discard()).Register(mux)
	return mux, store
}

func seedBanner(t *testing.T, store *storage.MockStore, title string, position int, active bool) *model.Banner {
	t.Helper()
	b := &model.Banner{Title: title, Position: position, Active: active,
		CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateBanner(context.Background(), b); err != nil {
		t.Fatalf("CreateBanner: %v", err)
	}
	return b
}

func TestListActive(t *testing.T) {
	mux, store := newTestMux(t, nil)
	seedBanner(t, store, "เปิดจองสนามเทอมใหม่", 1, true)
	seedBanner(t, store, "old", 2, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/banners", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Banners []*model.Banner `json:"banners"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(body.Banners) != 1 {
		t.Fatalf("banners = %d 条, want 1", len(body.Banners))
	}
	if body.Banners[0].Title != "เปิดจองสนามเทอมใหม่" {
		t.Errorf("banners[0].Title = %q", body.Banners[0].Title)
	}
}

func TestListActiveUsesCache(t *testing.T) {
	mock := cache.NewMock()
	mux, store := newTestMux(t, mock)
	seedBanner(t, store, "cached", 1, true)

	// 第一次请求回填缓存
	req := httptest.NewRequest(http.MethodGet, "/api/v1/banners", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	listCalls := store.CallCount("ListBanners")
	if listCalls != 1 {
		t.Fatalf("ListBanners 调用 %d 次, want 1", listCalls)
	}

	// 第二次命中缓存，不再触达存储
	req = httptest.NewRequest(http.MethodGet, "/api/v1/banners", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := store.CallCount("ListBanners"); got != listCalls {
		t.Errorf("缓存命中后 ListBanners 调用 %d 次, want %d", got, listCalls)
	}
}

func TestUpdateBanner(t *testing.T) {
	mock := cache.NewMock()
	mux, store := newTestMux(t, mock)
	b := seedBanner(t, store, "before", 1, true)

	// 预热缓存，更新后应失效
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/banners", nil))

	payload := []byte(`{"title": "after", "active": false}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/banners/1", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got, err := store.GetBanner(context.Background(), b.ID)
	if err != nil || got == nil {
		t.Fatalf("GetBanner: %v", err)
	}
	if got.Title != "after" || got.Active {
		t.Errorf("更新未生效: title = %q, active = %v", got.Title, got.Active)
	}
	// 未携带的字段保持原值
	if got.Position != 1 {
		t.Errorf("position = %d, want 1", got.Position)
	}

	// 缓存已失效，下次列表重新查库
	before := store.CallCount("ListBanners")
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/banners", nil))
	if got := store.CallCount("ListBanners"); got != before+1 {
		t.Errorf("更新后缓存未失效: ListBanners 调用 %d 次, want %d", got, before+1)
	}
}

func TestUpdateBannerNotFound(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/banners/99",
		bytes.NewReader([]byte(`{"title": "x"}`)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateBannerBadBody(t *testing.T) {
	mux, store := newTestMux(t, nil)
	seedBanner(t, store, "x", 1, true)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/banners/1",
		bytes.NewReader([]byte(`{not json`)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteBanner(t *testing.T) {
	mux, store := newTestMux(t, nil)
	b := seedBanner(t, store, "to-delete", 1, true)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/banners/1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got, _ := store.GetBanner(context.Background(), b.ID)
	if got != nil {
		t.Error("横幅未删除")
	}

	// 再删一次 404
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/banners/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("重复删除 status = %d, want 404", rec.Code)
	}
}

func TestImageNotFound(t *testing.T) {
	mux, store := newTestMux(t, nil)
	// 无图片 key 的横幅与不存在的横幅都应 404，且不触达对象存储
	seedBanner(t, store, "no-image", 1, true)

	tests := []string{
		"/api/v1/banners/1/image",
		"/api/v1/banners/99/image",
	}
	for _, path := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestCreateBannerRequiresTitle(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/banners", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
