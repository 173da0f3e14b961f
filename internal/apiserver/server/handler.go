// Package server 路由配置与核心基础设施
//
// 本文件组装 HTTP 路由，将请求分发到各领域独立包：
//   - auth: 登录/登出/会话接口、路由守卫、会话监控 WebSocket
//   - audit: 审计日志查询（管理员）
//   - banner: 首页横幅管理（图片走对象存储，列表走缓存）
//   - facility: 场馆/场地只读列表
//
// metrics.go 为 Prometheus 指标。
package server

import (
	"encoding/json"
	"net/http"

	"court-admin/internal/apiserver/audit"
	"court-admin/internal/apiserver/auth"
	"court-admin/internal/apiserver/banner"
	"court-admin/internal/apiserver/facility"
	"court-admin/internal/shared/cache"
	"court-admin/internal/shared/objstore"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

// Handler API 处理器
//
// 所有 HTTP 接口的入口：持有存储、缓存、对象存储等共享依赖，
// Router 负责把各领域包的路由挂到同一个 mux 上并套上中间件。
type Handler struct {
	store   storage.PersistentStore
	cache   cache.Cache     // 可为 nil（直连存储、不限流）
	images  *objstore.Client
	authCfg auth.Config
	logger  *logging.Logger
	metrics *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, c cache.Cache, images *objstore.Client,
	authCfg auth.Config, logger *logging.Logger) *Handler {
	return &Handler{
		store:   store,
		cache:   c,
		images:  images,
		authCfg: authCfg,
		logger:  logger,
		metrics: NewMetrics("court_admin"),
	}
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查与指标:
//   - GET  /health  - 服务健康检查
//   - GET  /metrics - Prometheus 指标
//
// 认证 (Auth):
//   - POST /api/v1/auth/login   - 登录（学号/身份证号/用户名三路）
//   - POST /api/v1/auth/logout  - 登出
//   - GET  /api/v1/auth/session - 当前会话快照（?mask=1 遮蔽标识）
//
// 审计 (Audit，管理员):
//   - GET  /api/v1/audit - 分页查询认证审计日志
//
// 横幅 (Banner):
//   - GET    /api/v1/banners            - 启用中的横幅列表（公开，缓存）
//   - GET    /api/v1/banners/{id}/image - 横幅图片（公开）
//   - POST   /api/v1/admin/banners      - 新建横幅（管理员）
//   - PUT    /api/v1/admin/banners/{id} - 更新横幅（管理员）
//   - DELETE /api/v1/admin/banners/{id} - 删除横幅（管理员）
//
// 场馆 (Facility):
//   - GET  /api/v1/facilities             - 场馆列表（公开）
//   - GET  /api/v1/facilities/{id}/courts - 场地列表（公开）
//
// WebSocket:
//   - GET  /ws/session-watch - 会话不活动监控
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", MetricsHandler())

	var throttle cache.LoginThrottleCache
	var bannerCache cache.BannerCache
	if h.cache != nil {
		throttle = h.cache
		bannerCache = h.cache
	}

	authn := auth.NewAuthenticator(h.store, throttle, h.authCfg, h.logger)
	authHandler := auth.NewHandler(authn, h.authCfg, h.logger, h.metrics)
	authHandler.Register(mux)

	auditHandler := audit.NewHandler(h.store, h.logger)
	auditHandler.Register(mux)

	bannerHandler := banner.NewHandler(h.store, h.images, bannerCache, h.logger)
	bannerHandler.Register(mux)

	facilityHandler := facility.NewHandler(h.store, h.logger)
	facilityHandler.Register(mux)

	guard := auth.NewGuard(h.authCfg,
		[]string{
			"/health",
			"/metrics",
			"/api/v1/auth/login",
			"/api/v1/banners",
			"/api/v1/facilities",
			"/login",
			"/",
		},
		[]auth.Rule{
			{Prefix: "/api/v1/admin/", Roles: []string{"admin", "super_admin"}},
			{Prefix: "/api/v1/audit", Roles: []string{"admin", "super_admin"}},
		},
	)

	// WebSocket 绕过 metrics 中间件：包装后的 ResponseWriter
	// 不实现 http.Hijacker，升级会失败
	wsMux := http.NewServeMux()
	watchHandler := auth.NewSessionWatchHandler(h.authCfg, h.logger, h.metrics.WSConnectionsActive)
	watchHandler.Register(wsMux)

	// 指标中间件在守卫之外：被拒绝的请求也计数
	metered := h.metrics.MetricsMiddleware(guard.Middleware(mux))

	topMux := http.NewServeMux()
	topMux.Handle("/ws/", guard.Middleware(wsMux))
	topMux.Handle("/", corsMiddleware(metered))

	return topMux
}

// Health 健康检查
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
