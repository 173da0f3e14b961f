// Package repository 场馆/场地/横幅的存储操作
package repository

import (
	"context"
	"database/sql"

	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
)

// ListFacilities 列出所有场馆
func (s *Store) ListFacilities(ctx context.Context) ([]*model.Facility, error) {
	query := s.rebind(`SELECT id, name, name_en, location, status, created_at, updated_at
		FROM facilities ORDER BY id ASC`)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Facility
	for rows.Next() {
		f := &model.Facility{}
		if err := rows.Scan(&f.ID, &f.Name, &f.NameEN, &f.Location, &f.Status,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListCourtsByFacility 列出场馆下的场地
func (s *Store) ListCourtsByFacility(ctx context.Context, facilityID int64) ([]*model.Court, error) {
	query := s.rebind(`SELECT id, facility_id, name, status, created_at
		FROM courts WHERE facility_id = $1 ORDER BY id ASC`)
	rows, err := s.db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Court
	for rows.Next() {
		c := &model.Court{}
		if err := rows.Scan(&c.ID, &c.FacilityID, &c.Name, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateBanner 创建横幅
func (s *Store) CreateBanner(ctx context.Context, banner *model.Banner) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO banners (title, image_key, link_url, position, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		banner.Title, banner.ImageKey, banner.LinkURL, banner.Position, banner.Active,
		banner.CreatedAt, banner.UpdatedAt,
	)
	if err != nil {
		return err
	}
	banner.ID = id
	return nil
}

// GetBanner 按 ID 查找横幅，不存在时返回 (nil, nil)
func (s *Store) GetBanner(ctx context.Context, id int64) (*model.Banner, error) {
	query := s.rebind(`SELECT id, title, image_key, link_url, position, active, created_at, updated_at
		FROM banners WHERE id = $1`)
	b := &model.Banner{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Title, &b.ImageKey,
		&b.LinkURL, &b.Position, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBanners 列出横幅，activeOnly 时只返回启用的
func (s *Store) ListBanners(ctx context.Context, activeOnly bool) ([]*model.Banner, error) {
	query := `SELECT id, title, image_key, link_url, position, active, created_at, updated_at
		FROM banners`
	if activeOnly {
		query += ` WHERE active = ` + s.dialect.BooleanLiteral(true)
	}
	query += ` ORDER BY position ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Banner
	for rows.Next() {
		b := &model.Banner{}
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageKey, &b.LinkURL, &b.Position,
			&b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBanner 更新横幅
func (s *Store) UpdateBanner(ctx context.Context, banner *model.Banner) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE banners SET title = $1, image_key = $2, link_url = $3,
			position = $4, active = $5, updated_at = `+s.dialect.CurrentTimestamp()+`
			WHERE id = $6`),
		banner.Title, banner.ImageKey, banner.LinkURL, banner.Position, banner.Active, banner.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteBanner 删除横幅
func (s *Store) DeleteBanner(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM banners WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SeedFacility 写入一个场馆（测试/初始化用）
func (s *Store) SeedFacility(ctx context.Context, f *model.Facility) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO facilities (name, name_en, location, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		f.Name, f.NameEN, f.Location, f.Status, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

// SeedCourt 写入一个场地（测试/初始化用）
func (s *Store) SeedCourt(ctx context.Context, c *model.Court) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO courts (facility_id, name, status, created_at)
		 VALUES ($1, $2, $3, $4)`,
		c.FacilityID, c.Name, c.Status, c.CreatedAt)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

var _ storage.PersistentStore = (*Store)(nil)
