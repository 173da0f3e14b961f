// Package storage 存储层接口定义
//
// 约定：单实体查询在记录不存在时返回 (nil, nil)，由业务层决定如何处理；
// 基础设施错误（连接失败等）以非 nil error 返回，从不与"不存在"混淆。
package storage

import (
	"context"
	"time"

	"court-admin/internal/shared/model"
)

// UserStore 用户账户存储（凭证存储适配器）
//
// 所有查询直达底层存储，不做缓存。
type UserStore interface {
	// CreateUser 创建用户，成功后回填 user.ID
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByID 按内部 ID 查找
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// GetUserByStudentID 按学号精确匹配，全系统预期最多一条
	GetUserByStudentID(ctx context.Context, studentID string) (*model.User, error)

	// GetUserByUsername 按用户名查找，限定角色集合（管理员登录路径）
	GetUserByUsername(ctx context.Context, username string, roles []model.UserRole) (*model.User, error)

	// ListNationalIDCandidates 返回角色在 roles 中且 national_id_hash 非空的全部账户
	// 仅用于身份证号登录路径的线性哈希比对
	ListNationalIDCandidates(ctx context.Context, roles []model.UserRole) ([]*model.User, error)

	// UpdateLastLogin 登录成功后回写时间戳和 IP（fire-and-forget 语义）
	UpdateLastLogin(ctx context.Context, id int64, at time.Time, ip string) error

	// UpdateUserStatus 管理端启用/停用账户
	UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) error

	// UpdateUserPassword 更新密码哈希
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error

	// ListUsers 列出所有用户（管理端）
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// AuditStore 审计日志存储（追加 + 分页查询）
type AuditStore interface {
	// AppendAuditLog 追加一条审计条目，成功后回填 entry.ID
	AppendAuditLog(ctx context.Context, entry *model.AuditLog) error

	// QueryAuditLogs 分页查询，返回 (条目, 总数)
	QueryAuditLogs(ctx context.Context, q model.AuditQuery) ([]*model.AuditLog, int, error)
}

// FacilityStore 场馆/场地/横幅存储（外部协作面，仅简单读写）
type FacilityStore interface {
	ListFacilities(ctx context.Context) ([]*model.Facility, error)
	ListCourtsByFacility(ctx context.Context, facilityID int64) ([]*model.Court, error)

	CreateBanner(ctx context.Context, banner *model.Banner) error
	GetBanner(ctx context.Context, id int64) (*model.Banner, error)
	ListBanners(ctx context.Context, activeOnly bool) ([]*model.Banner, error)
	UpdateBanner(ctx context.Context, banner *model.Banner) error
	DeleteBanner(ctx context.Context, id int64) error
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	AuditStore
	FacilityStore
	Close() error
}
