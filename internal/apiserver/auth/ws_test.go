package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"court-admin/pkg/logging"
)

// fakeConnGauge 线程安全的连接计数
type fakeConnGauge struct {
	mu     sync.Mutex
	active int
	peak   int
}

func (g *fakeConnGauge) Inc() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
}

func (g *fakeConnGauge) Dec() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active--
}

func (g *fakeConnGauge) snapshot() (active, peak int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.peak
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionWatchTracksConnections(t *testing.T) {
	gauge := &fakeConnGauge{}
	h := NewSessionWatchHandler(testConfig(), logging.Discard(), gauge)

	// 守卫在外层完成认证，这里直接注入已认证用户
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(WithAuthUser(r.Context(), &AuthUser{ID: 1, Username: "admin", Role: "admin"}))
		h.Watch(w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session-watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitFor(t, func() bool { a, _ := gauge.snapshot(); return a == 1 },
		"connection not counted")

	conn.Close()
	waitFor(t, func() bool { a, _ := gauge.snapshot(); return a == 0 },
		"connection count not released after close")

	if _, peak := gauge.snapshot(); peak != 1 {
		t.Errorf("peak connections = %d, want 1", peak)
	}
}

// 未认证的连接在升级前被拒绝，不计入连接数
func TestSessionWatchUnauthenticated(t *testing.T) {
	gauge := &fakeConnGauge{}
	h := NewSessionWatchHandler(testConfig(), logging.Discard(), gauge)

	w := httptest.NewRecorder()
	h.Watch(w, httptest.NewRequest("GET", "/ws/session-watch", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", w.Code)
	}
	if a, _ := gauge.snapshot(); a != 0 {
		t.Errorf("unauthenticated request counted: %d", a)
	}
}
