package model

import "time"

// FacilityStatus 场馆状态
type FacilityStatus string

const (
	FacilityStatusOpen   FacilityStatus = "open"
	FacilityStatusClosed FacilityStatus = "closed"
)

// Facility 场馆
type Facility struct {
	ID        int64          `json:"id" db:"id" bson:"_id"`
	Name      string         `json:"name" db:"name" bson:"name"`
	NameEN    string         `json:"name_en" db:"name_en" bson:"name_en"`
	Location  string         `json:"location" db:"location" bson:"location"`
	Status    FacilityStatus `json:"status" db:"status" bson:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// Court 场馆内的羽毛球场地
type Court struct {
	ID         int64     `json:"id" db:"id" bson:"_id"`
	FacilityID int64     `json:"facility_id" db:"facility_id" bson:"facility_id"`
	Name       string    `json:"name" db:"name" bson:"name"`
	Status     string    `json:"status" db:"status" bson:"status"` // available | maintenance
	CreatedAt  time.Time `json:"created_at" db:"created_at" bson:"created_at"`
}

// Banner 首页横幅
//
// ImageKey 指向对象存储中的图片，由 banner handler 负责上传/下发。
type Banner struct {
	ID        int64     `json:"id" db:"id" bson:"_id"`
	Title     string    `json:"title" db:"title" bson:"title"`
	ImageKey  string    `json:"image_key" db:"image_key" bson:"image_key"`
	LinkURL   string    `json:"link_url" db:"link_url" bson:"link_url"`
	Position  int       `json:"position" db:"position" bson:"position"`
	Active    bool      `json:"active" db:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}
