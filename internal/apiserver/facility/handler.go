// Package facility 场馆与场地的只读列表接口
package facility

import (
	"encoding/json"
	"net/http"
	"strconv"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

// Handler 场馆 HTTP 接口
type Handler struct {
	store  storage.FacilityStore
	logger *logging.Logger
}

// NewHandler 创建场馆 Handler
func NewHandler(store storage.FacilityStore, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register 注册场馆路由
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/facilities", h.List)
	mux.HandleFunc("GET /api/v1/facilities/{id}/courts", h.Courts)
}

// List 列出全部场馆
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.store.ListFacilities(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("facility list query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if facilities == nil {
		facilities = []*model.Facility{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"facilities": facilities})
}

// Courts 列出指定场馆内的场地
func (h *Handler) Courts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}
	courts, err := h.store.ListCourtsByFacility(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("court list query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if courts == nil {
		courts = []*model.Court{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"courts": courts})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
