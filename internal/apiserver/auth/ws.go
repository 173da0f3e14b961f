package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"court-admin/pkg/logging"
	"court-admin/pkg/sessiontimer"
)

// ConnGauge 活动连接计数，prometheus.Gauge 满足该接口
type ConnGauge interface {
	Inc()
	Dec()
}

// SessionWatchHandler 会话不活动监控的 WebSocket 端点
//
// 前端连上后，每次用户活动发一条 activity 消息；服务端按配置的
// 空闲阈值推送 warning / timeout 事件。timeout 推送后连接关闭，
// 前端据此登出。
type SessionWatchHandler struct {
	cfg      Config
	logger   *logging.Logger
	conns    ConnGauge // 可为 nil
	upgrader websocket.Upgrader
}

// NewSessionWatchHandler 创建会话监控端点
//
// conns 传 nil 时不统计连接数。
func NewSessionWatchHandler(cfg Config, logger *logging.Logger, conns ConnGauge) *SessionWatchHandler {
	return &SessionWatchHandler{
		cfg:    cfg,
		logger: logger,
		conns:  conns,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 同源页面使用；令牌校验在路由守卫完成
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register 注册 WebSocket 路由
func (h *SessionWatchHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/session-watch", h.Watch)
}

// watchEvent 服务端推送的事件
type watchEvent struct {
	Type             string `json:"type"` // warning | timeout
	Reason           string `json:"reason,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

// clientMessage 客户端上行消息
type clientMessage struct {
	Type string `json:"type"` // activity | extend | ping
}

// Watch 升级连接并驱动单会话的空闲监控
func (h *SessionWatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	user := GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized",
			"กรุณาเข้าสู่ระบบก่อนใช้งาน")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if h.conns != nil {
		h.conns.Inc()
		defer h.conns.Dec()
	}

	// gorilla 的写端不允许并发写，回调和读循环都经过同一把锁
	var writeMu sync.Mutex
	send := func(ev watchEvent) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(ev)
	}

	timeout := time.Duration(h.cfg.TimeoutMinutes) * time.Minute
	warning := time.Duration(h.cfg.WarningMinutes) * time.Minute

	done := make(chan struct{})
	var closeOnce sync.Once

	monitor := sessiontimer.New(timeout, warning,
		func(remaining time.Duration) {
			if err := send(watchEvent{
				Type:             "warning",
				RemainingSeconds: int(remaining.Seconds()),
			}); err != nil {
				h.logger.WithError(err).Debug("session warning push failed")
			}
		},
		func(reason string) {
			_ = send(watchEvent{Type: "timeout", Reason: reason})
			closeOnce.Do(func() { close(done) })
		},
	)
	defer monitor.Stop()

	h.logger.WithUserID(user.ID).Debug("session watch started",
		"timeout_minutes", h.cfg.TimeoutMinutes)

	// 读循环：activity 消息重置空闲计时
	go func() {
		defer closeOnce.Do(func() { close(done) })
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "activity":
				monitor.Touch()
			case "extend":
				// 预警弹窗的"继续使用"
				monitor.Extend()
			}
		}
	}()

	<-done

	writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	writeMu.Unlock()
}
