// Package repository User 相关的存储操作（凭证存储适配器）
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
)

const userColumns = `id, username, student_id, national_id_hash, name, email,
	password_hash, role, status, last_login_at, last_login_ip, created_at, updated_at`

// CreateUser 创建用户，成功后回填自增 ID
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO users (username, student_id, national_id_hash, name, email,
			password_hash, role, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.Username, user.StudentID, user.NationalIDHash, user.Name, user.Email,
		user.PasswordHash, user.Role, user.Status, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return err
	}
	user.ID = id
	return nil
}

// GetUserByID 按内部 ID 查找
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = $1`)
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByStudentID 按学号精确匹配
func (s *Store) GetUserByStudentID(ctx context.Context, studentID string) (*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE student_id = $1`)
	return s.scanUser(s.db.QueryRowContext(ctx, query, studentID))
}

// GetUserByUsername 按用户名查找，限定角色集合
func (s *Store) GetUserByUsername(ctx context.Context, username string, roles []model.UserRole) (*model.User, error) {
	if len(roles) == 0 {
		roles = model.AdminRoles
	}
	placeholders, args := rolePlaceholders(roles, 2)
	query := s.rebind(fmt.Sprintf(
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND role IN (%s)`, placeholders))
	return s.scanUser(s.db.QueryRowContext(ctx, query, append([]interface{}{username}, args...)...))
}

// ListNationalIDCandidates 返回角色匹配且 national_id_hash 非空的全部账户
//
// 身份证号登录走逐条 bcrypt 比对，这里只负责圈定候选集，
// 按 id 排序保证比对顺序稳定。
func (s *Store) ListNationalIDCandidates(ctx context.Context, roles []model.UserRole) ([]*model.User, error) {
	if len(roles) == 0 {
		roles = model.NationalIDRoles
	}
	placeholders, args := rolePlaceholders(roles, 1)
	query := s.rebind(fmt.Sprintf(
		`SELECT `+userColumns+` FROM users
		 WHERE national_id_hash IS NOT NULL AND role IN (%s) ORDER BY id ASC`, placeholders))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateLastLogin 登录成功后回写时间戳和 IP
func (s *Store) UpdateLastLogin(ctx context.Context, id int64, at time.Time, ip string) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE users SET last_login_at = $1, last_login_ip = $2 WHERE id = $3`),
		at, ip, id)
	return err
}

// UpdateUserStatus 启用/停用账户
func (s *Store) UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE users SET status = $1, updated_at = `+s.dialect.CurrentTimestamp()+` WHERE id = $2`),
		status, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// UpdateUserPassword 更新密码哈希
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE users SET password_hash = $1, updated_at = `+s.dialect.CurrentTimestamp()+` WHERE id = $2`),
		passwordHash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListUsers 列出所有用户
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users ORDER BY id ASC`)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ============================================================================
// 扫描辅助
// ============================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser 扫描单行，不存在时返回 (nil, nil)
func (s *Store) scanUser(row *sql.Row) (*model.User, error) {
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func scanUserRow(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.StudentID, &u.NationalIDHash, &u.Name, &u.Email,
		&u.PasswordHash, &u.Role, &u.Status, &u.LastLoginAt, &u.LastLoginIP,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// rolePlaceholders 生成角色 IN 子句的占位符和参数
func rolePlaceholders(roles []model.UserRole, start int) (string, []interface{}) {
	parts := make([]string, len(roles))
	args := make([]interface{}, len(roles))
	for i, r := range roles {
		parts[i] = fmt.Sprintf("$%d", start+i)
		args[i] = string(r)
	}
	return strings.Join(parts, ", "), args
}

// requireAffected 将零行更新映射为 ErrNotFound
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// isUniqueViolation 粗粒度判断唯一键冲突（跨驱动）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
