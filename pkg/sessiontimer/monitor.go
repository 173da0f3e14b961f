// Package sessiontimer 会话不活动监控
//
// 跟踪单个会话的空闲时间：空闲达到 timeout−warning 时触发一次预警回调，
// 达到 timeout 时触发超时回调并停止。任何一次活动（Touch）都会把两个
// 截止点整体后移并允许预警再次触发。
package sessiontimer

import (
	"sync"
	"time"
)

// TimeoutReason 超时回调携带的原因标识
const TimeoutReason = "timeout"

// Monitor 单会话空闲监控器
//
// 回调在计时器 goroutine 上执行，不应阻塞；同一空闲周期内
// 预警至多触发一次。
type Monitor struct {
	mu sync.Mutex

	timeout time.Duration
	warning time.Duration

	onWarning func(remaining time.Duration)
	onTimeout func(reason string)

	warnTimer *time.Timer
	outTimer  *time.Timer
	stopped   bool
}

// New 创建监控器并立即开始计时
//
// warning 必须小于 timeout；不满足时预警截止点直接取消（只留超时）。
// 回调可为 nil。
func New(timeout, warning time.Duration,
	onWarning func(remaining time.Duration), onTimeout func(reason string)) *Monitor {
	m := &Monitor{
		timeout:   timeout,
		warning:   warning,
		onWarning: onWarning,
		onTimeout: onTimeout,
	}
	m.mu.Lock()
	m.arm()
	m.mu.Unlock()
	return m
}

// arm 设置两个截止点；调用方持锁
func (m *Monitor) arm() {
	if m.stopped {
		return
	}
	if m.warning > 0 && m.warning < m.timeout {
		m.warnTimer = time.AfterFunc(m.timeout-m.warning, m.fireWarning)
	}
	m.outTimer = time.AfterFunc(m.timeout, m.fireTimeout)
}

// disarm 取消未触发的截止点；调用方持锁
func (m *Monitor) disarm() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.outTimer != nil {
		m.outTimer.Stop()
		m.outTimer = nil
	}
}

func (m *Monitor) fireWarning() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	cb := m.onWarning
	remaining := m.warning
	m.mu.Unlock()

	if cb != nil {
		cb(remaining)
	}
}

func (m *Monitor) fireTimeout() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.disarm()
	cb := m.onTimeout
	m.mu.Unlock()

	if cb != nil {
		cb(TimeoutReason)
	}
}

// Touch 记录一次活动：重置两个截止点，预警允许再次触发
//
// 已停止的监控器上调用是 no-op。
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.disarm()
	m.arm()
}

// Extend 显式续期（预警弹窗里的"继续使用"），效果等同一次活动
func (m *Monitor) Extend() {
	m.Touch()
}

// Stop 停止监控，之后不再有任何回调
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	m.disarm()
}

// Stopped 返回监控器是否已停止（超时触发或显式 Stop）
func (m *Monitor) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
