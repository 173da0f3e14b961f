// Package mysql MySQL 数据库驱动（预留）
//
// 提供 MySQL 方言实现。校内部分老系统仍跑 MySQL，
// 方言先行，连接管理待接入需求明确后补齐。
package mysql

import (
	"database/sql"
	"errors"

	"court-admin/internal/shared/storage/dbutil"
)

// Dialect MySQL 方言实现
type Dialect struct{}

var _ dbutil.Dialect = (*Dialect)(nil)

func (d *Dialect) DriverType() dbutil.DriverType {
	return dbutil.DriverMySQL
}

func (d *Dialect) Rebind(query string) string {
	return dbutil.StripPgCasts(dbutil.RebindToQuestion(query))
}

func (d *Dialect) CurrentTimestamp() string {
	return "NOW()"
}

func (d *Dialect) BooleanLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (d *Dialect) SupportsReturning() bool {
	return false
}

func (d *Dialect) AutoMigrate(_ *sql.DB) error {
	// TODO: 接入 MySQL 部署时补齐建表语句（与 postgres/sqlite schema 对齐）
	return errors.New("mysql: auto-migration not implemented")
}

// NewDialect 创建 MySQL 方言
func NewDialect() *Dialect {
	return &Dialect{}
}
