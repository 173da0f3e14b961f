// Package repository 审计日志的存储操作
package repository

import (
	"context"
	"fmt"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage/dbutil"
)

// AppendAuditLog 追加一条审计条目
//
// 审计表只追加不修改，这里没有对应的 UPDATE/DELETE 操作。
func (s *Store) AppendAuditLog(ctx context.Context, entry *model.AuditLog) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO audit_logs (user_id, username_input, action, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.UserID, entry.UsernameInput, entry.Action, entry.IP, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// QueryAuditLogs 分页查询审计条目，返回 (条目, 总数)
func (s *Store) QueryAuditLogs(ctx context.Context, q model.AuditQuery) ([]*model.AuditLog, int, error) {
	q.Normalize()

	var conditions []string
	var args []interface{}
	idx := 1

	addCond := func(cond string, val interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, idx))
		args = append(args, val)
		idx++
	}

	if q.Action != "" {
		addCond("action = $%d", string(q.Action))
	}
	if q.UserID != nil {
		addCond("user_id = $%d", *q.UserID)
	}
	if q.UsernameLike != "" {
		addCond("username_input LIKE $%d", "%"+q.UsernameLike+"%")
	}
	if q.From != nil {
		addCond("created_at >= $%d", *q.From)
	}
	if q.To != nil {
		addCond("created_at <= $%d", *q.To)
	}

	countQuery, countArgs := dbutil.BuildDynamicQuery(s.dialect,
		`SELECT COUNT(1) FROM audit_logs`, conditions, args)
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.PerPage
	listQuery, listArgs := dbutil.BuildDynamicQuery(s.dialect,
		`SELECT id, user_id, username_input, action, ip, user_agent, created_at FROM audit_logs`,
		conditions, args)
	listQuery += s.rebind(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", idx, idx+1))
	listArgs = append(listArgs, q.PerPage, offset)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []*model.AuditLog{}
	for rows.Next() {
		e := &model.AuditLog{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.UsernameInput, &e.Action,
			&e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
