// Package banner 首页横幅管理（图片存对象存储，列表走缓存）
package banner

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"court-admin/internal/shared/cache"
	"court-admin/internal/shared/model"
	"court-admin/internal/shared/objstore"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

// maxImageSize 横幅图片上限 5MB
const maxImageSize = 5 << 20

// listCacheTTL 公开横幅列表的缓存时长
const listCacheTTL = 5 * time.Minute

// Handler 横幅 HTTP 接口
type Handler struct {
	store  storage.FacilityStore
	images *objstore.Client
	cache  cache.BannerCache // 可为 nil（直连存储）
	logger *logging.Logger
}

// NewHandler 创建横幅 Handler
func NewHandler(store storage.FacilityStore, images *objstore.Client,
	bannerCache cache.BannerCache, logger *logging.Logger) *Handler {
	return &Handler{store: store, images: images, cache: bannerCache, logger: logger}
}

// Register 注册横幅路由
//
// /api/v1/banners 为公开读；/api/v1/admin/banners 下的写操作
// 由路由守卫限定为管理员角色。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/banners", h.ListActive)
	mux.HandleFunc("GET /api/v1/banners/{id}/image", h.Image)
	mux.HandleFunc("POST /api/v1/admin/banners", h.Create)
	mux.HandleFunc("PUT /api/v1/admin/banners/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/admin/banners/{id}", h.Delete)
}

// ListActive 列出启用中的横幅（缓存优先）
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if banners, ok, err := h.cache.GetBannerList(r.Context()); err == nil && ok {
			writeJSON(w, http.StatusOK, map[string]any{"banners": banners})
			return
		}
	}

	banners, err := h.store.ListBanners(r.Context(), true)
	if err != nil {
		h.logger.WithError(err).Error("banner list query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if banners == nil {
		banners = []*model.Banner{}
	}

	if h.cache != nil {
		if err := h.cache.SetBannerList(r.Context(), banners, listCacheTTL); err != nil {
			h.logger.WithError(err).Warn("banner cache write failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"banners": banners})
}

// Image 流式下发横幅图片
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid banner id")
		return
	}
	banner, err := h.store.GetBanner(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("banner lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if banner == nil || banner.ImageKey == "" {
		writeError(w, http.StatusNotFound, "banner not found")
		return
	}

	reader, contentType, err := h.images.Download(r.Context(), banner.ImageKey)
	if err != nil {
		h.logger.WithError(err).Error("banner image download failed",
			"image_key", banner.ImageKey)
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer reader.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = io.Copy(w, reader)
}

// Create 新建横幅：multipart 表单携带元数据与图片文件
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	banner := &model.Banner{
		Title:   r.FormValue("title"),
		LinkURL: r.FormValue("link_url"),
		Active:  r.FormValue("active") != "false",
	}
	banner.Position, _ = strconv.Atoi(r.FormValue("position"))
	if banner.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("banners/%d%s", time.Now().UnixNano(), path.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if err := h.images.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		h.logger.WithError(err).Error("banner image upload failed")
		writeError(w, http.StatusInternalServerError, "image upload failed")
		return
	}
	banner.ImageKey = key

	now := time.Now()
	banner.CreatedAt = now
	banner.UpdatedAt = now
	if err := h.store.CreateBanner(r.Context(), banner); err != nil {
		// 元数据写失败时回收已上传的图片
		if derr := h.images.Delete(r.Context(), key); derr != nil {
			h.logger.WithError(derr).Warn("orphan banner image cleanup failed",
				"image_key", key)
		}
		h.logger.WithError(err).Error("banner create failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.invalidateCache(r)
	writeJSON(w, http.StatusCreated, banner)
}

// Update 更新横幅元数据（不换图；换图走删除重建）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid banner id")
		return
	}
	existing, err := h.store.GetBanner(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("banner lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "banner not found")
		return
	}

	var req struct {
		Title    *string `json:"title"`
		LinkURL  *string `json:"link_url"`
		Position *int    `json:"position"`
		Active   *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.LinkURL != nil {
		existing.LinkURL = *req.LinkURL
	}
	if req.Position != nil {
		existing.Position = *req.Position
	}
	if req.Active != nil {
		existing.Active = *req.Active
	}
	existing.UpdatedAt = time.Now()

	if err := h.store.UpdateBanner(r.Context(), existing); err != nil {
		h.logger.WithError(err).Error("banner update failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.invalidateCache(r)
	writeJSON(w, http.StatusOK, existing)
}

// Delete 删除横幅及其图片
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid banner id")
		return
	}
	banner, err := h.store.GetBanner(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("banner lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if banner == nil {
		writeError(w, http.StatusNotFound, "banner not found")
		return
	}

	if err := h.store.DeleteBanner(r.Context(), id); err != nil {
		h.logger.WithError(err).Error("banner delete failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if banner.ImageKey != "" {
		if err := h.images.Delete(r.Context(), banner.ImageKey); err != nil {
			h.logger.WithError(err).Warn("banner image delete failed",
				"image_key", banner.ImageKey)
		}
	}

	h.invalidateCache(r)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) invalidateCache(r *http.Request) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateBannerList(r.Context()); err != nil {
		h.logger.WithError(err).Warn("banner cache invalidation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
