// Package audit 审计日志查询接口（管理端）
package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

// Handler 审计查询 HTTP 接口
type Handler struct {
	store  storage.AuditStore
	logger *logging.Logger
}

// NewHandler 创建审计 Handler
func NewHandler(store storage.AuditStore, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register 注册审计路由（路由守卫限定为管理员角色）
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/audit", h.Query)
}

// Query 分页查询审计日志
//
// 支持的过滤参数：action、user_id、q（username_input 子串）、from、to（RFC3339）、
// page、per_page。
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := model.AuditQuery{
		Action:       model.AuditAction(r.URL.Query().Get("action")),
		UsernameLike: r.URL.Query().Get("q"),
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		q.UserID = &id
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		q.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		q.To = &t
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	q.Normalize()

	entries, total, err := h.store.QueryAuditLogs(r.Context(), q)
	if err != nil {
		h.logger.WithError(err).Error("audit query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []*model.AuditLog{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  entries,
		"total":    total,
		"page":     q.Page,
		"per_page": q.PerPage,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
