package models

import "time"

// BaseModel 所有表共用的主键与时间戳，由 gorm 在写入时自动维护
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
