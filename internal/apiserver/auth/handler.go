package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

// LoginMetrics 登录结果观测钩子，由 server 层注入
//
// result 取值：success | fail | throttled。
type LoginMetrics interface {
	RecordLoginAttempt(result string)
	SessionIssued(ttl time.Duration)
}

// Handler 认证相关 HTTP 接口
type Handler struct {
	authn   *Authenticator
	cfg     Config
	logger  *logging.Logger
	metrics LoginMetrics // 可为 nil
}

// NewHandler 创建认证 Handler
//
// metrics 传 nil 时不记录登录指标。
func NewHandler(authn *Authenticator, cfg Config, logger *logging.Logger, metrics LoginMetrics) *Handler {
	return &Handler{authn: authn, cfg: cfg, logger: logger, metrics: metrics}
}

func (h *Handler) recordAttempt(result string) {
	if h.metrics != nil {
		h.metrics.RecordLoginAttempt(result)
	}
}

// Register 注册认证路由
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/session", h.Session)
}

// loginRequest 登录请求体
//
// type 可省略：省略时由服务端按输入形状自动判定。
// original_identifier 供身份证号登录携带明文：前端可能在 identifier
// 里传脱敏/占位值，哈希比对必须拿到原始输入。
type loginRequest struct {
	Identifier         string `json:"identifier"`
	Password           string `json:"password"`
	Type               string `json:"type,omitempty"`
	OriginalIdentifier string `json:"original_identifier,omitempty"`
}

// loginResponse 登录成功响应
type loginResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	User        *Identity    `json:"user"`
	AccessToken string       `json:"access_token"`
	Session     *sessionInfo `json:"session"`
}

// sessionInfo 下发给客户端的会话参数，驱动前端不活动监控
type sessionInfo struct {
	ExpiresAt      time.Time `json:"expires_at"`
	TimeoutMinutes int       `json:"timeout_minutes"`
	WarningMinutes int       `json:"warning_minutes"`
}

// Login 处理登录请求
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "คำขอไม่ถูกต้อง")
		return
	}

	idType := IdentifierType(req.Type)
	identifier := req.Identifier
	if req.Type == "" {
		t, normalized, err := ClassifyIdentifier(req.Identifier)
		if err != nil {
			writeError(w, HTTPStatus(err), ErrorCode(err), UserMessage(err))
			return
		}
		idType = t
		identifier = normalized
	}

	original := req.OriginalIdentifier
	if original == "" {
		original = req.Identifier
	}

	meta := RequestMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
	id, err := h.authn.Authenticate(r.Context(), Credentials{
		Identifier:         identifier,
		Password:           req.Password,
		Type:               idType,
		OriginalIdentifier: original,
	}, meta)
	if err != nil {
		if errors.Is(err, ErrThrottled) {
			h.recordAttempt("throttled")
		} else {
			h.recordAttempt("fail")
		}
		h.logger.AuthLog("login_fail", nil, meta.IP, err)
		writeError(w, HTTPStatus(err), ErrorCode(err), UserMessage(err))
		return
	}
	h.recordAttempt("success")

	token, err := IssueToken(h.cfg, id)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue session token")
		writeError(w, http.StatusInternalServerError, "internal_error",
			UserMessage(err))
		return
	}

	ttl := h.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if h.metrics != nil {
		h.metrics.SessionIssued(ttl)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.AuthLog("login_success", &id.ID, meta.IP, nil)
	writeJSON(w, http.StatusOK, loginResponse{
		Success:     true,
		Message:     "เข้าสู่ระบบสำเร็จ",
		User:        id,
		AccessToken: token,
		Session: &sessionInfo{
			ExpiresAt:      time.Now().Add(ttl),
			TimeoutMinutes: h.cfg.TimeoutMinutes,
			WarningMinutes: h.cfg.WarningMinutes,
		},
	})
}

// Logout 处理登出请求
//
// 无服务端会话可清除，登出即清 Cookie + 写一条审计；
// 令牌本身到自然过期前仍是有效签名，这是快照式会话的既有权衡。
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	meta := RequestMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
	if user := GetAuthUser(r.Context()); user != nil {
		h.authn.RecordLogout(r.Context(), user, meta)
		h.logger.AuthLog("logout", &user.ID, meta.IP, nil)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "ออกจากระบบแล้ว",
	})
}

// Session 返回当前会话的用户快照
//
// ?mask=1 时对用户名做部分遮蔽，用于在页面上展示而不暴露完整标识。
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	user := GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized",
			"กรุณาเข้าสู่ระบบก่อนใช้งาน")
		return
	}

	username := user.Username
	if r.URL.Query().Get("mask") == "1" {
		username = MaskIdentifier(username)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       user.ID,
			"name":     user.Name,
			"username": username,
			"role":     user.Role,
		},
		"session": sessionInfo{
			TimeoutMinutes: h.cfg.TimeoutMinutes,
			WarningMinutes: h.cfg.WarningMinutes,
		},
	})
}

// MaskIdentifier 部分遮蔽登录标识：保留前 2 位与后 2 位，其余替换为 *
func MaskIdentifier(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// EnsureAdminUser 启动时的管理员引导
//
// username 已存在则不动；不存在则用给定密码创建 super_admin。
// 密码为空且需要创建时报错，避免静默造出弱口令账户。
func EnsureAdminUser(ctx context.Context, store storage.UserStore, username, password string, logger *logging.Logger) error {
	existing, err := store.GetUserByUsername(ctx, username, model.AdminRoles)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if password == "" {
		return errors.New("admin bootstrap: password required to create initial admin")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now()
	user := &model.User{
		Username:     &username,
		Name:         "System Administrator",
		Email:        username + "@localhost",
		PasswordHash: hash,
		Role:         model.UserRoleSuperAdmin,
		Status:       model.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}
	logger.Info("created initial admin account", "username", username)
	return nil
}

// ============================================================================
// 响应辅助函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}

// clientIP 按代理头优先级解析客户端 IP
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
