// Package model 领域模型定义
package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleStudent    UserRole = "student"
	UserRoleStaff      UserRole = "staff"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleGuest      UserRole = "guest"
)

// UserStatus 用户状态
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User 用户账户
//
// 登录标识三选一：学生用 student_id，教职工/访客用 national_id_hash（单向哈希，
// 从不存明文），管理员用 username。非管理员账户最多只有一个主登录标识。
type User struct {
	ID             int64      `json:"id" db:"id" bson:"_id"`
	Username       *string    `json:"username,omitempty" db:"username" bson:"username,omitempty"`
	StudentID      *string    `json:"student_id,omitempty" db:"student_id" bson:"student_id,omitempty"`
	NationalIDHash *string    `json:"-" db:"national_id_hash" bson:"national_id_hash,omitempty"` // never expose in JSON
	Name           string     `json:"name" db:"name" bson:"name"`
	Email          string     `json:"email" db:"email" bson:"email"`
	PasswordHash   string     `json:"-" db:"password_hash" bson:"password_hash"` // never expose in JSON
	Role           UserRole   `json:"role" db:"role" bson:"role"`
	Status         UserStatus `json:"status" db:"status" bson:"status"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty" db:"last_login_at" bson:"last_login_at,omitempty"`
	LastLoginIP    *string    `json:"last_login_ip,omitempty" db:"last_login_ip" bson:"last_login_ip,omitempty"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// IsActive 账户是否可登录
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// AdminRoles 可通过 username 登录的角色集合
var AdminRoles = []UserRole{UserRoleAdmin, UserRoleSuperAdmin}

// NationalIDRoles 通过 national_id 登录的默认角色集合
var NationalIDRoles = []UserRole{UserRoleStaff, UserRoleGuest}
