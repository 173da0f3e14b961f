package model

import "time"

// AuditAction 审计动作类型
type AuditAction string

const (
	AuditActionLoginSuccess AuditAction = "login_success"
	AuditActionLoginFail    AuditAction = "login_fail"
	AuditActionLogout       AuditAction = "logout"
)

// AuditLog 认证审计条目
//
// 每次到达账户定位之后的认证尝试（成功或失败）恰好写入一条，追加后不可变。
// UserID 为 NULL 表示标识未匹配到任何账户。
type AuditLog struct {
	ID            int64       `json:"id" db:"id" bson:"_id"`
	UserID        *int64      `json:"user_id,omitempty" db:"user_id" bson:"user_id,omitempty"`
	UsernameInput string      `json:"username_input" db:"username_input" bson:"username_input"` // 原始输入，留作取证
	Action        AuditAction `json:"action" db:"action" bson:"action"`
	IP            string      `json:"ip" db:"ip" bson:"ip"`
	UserAgent     string      `json:"user_agent" db:"user_agent" bson:"user_agent"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at" bson:"created_at"`
}

// AuditQuery 审计查询过滤条件（分页）
type AuditQuery struct {
	Action       AuditAction // 空值表示不过滤
	UserID       *int64
	UsernameLike string // username_input 子串匹配
	From         *time.Time
	To           *time.Time
	Page         int // 从 1 开始
	PerPage      int
}

// Normalize 填充分页默认值
func (q *AuditQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 200 {
		q.PerPage = 50
	}
}
