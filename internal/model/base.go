package model

import (
	"time"
)

// BaseEntity carries audit columns shared by every table.
// CreatedAt, UpdatedAt는 GORM이 자동 관리, UpdatedBy는 lifecycle 전이 시 actor ID로 설정
type BaseEntity struct {
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
	CreatedBy *string   `gorm:"column:created_by;size:64"`
	UpdatedBy *string   `gorm:"column:updated_by;size:64"` // admin account ID or "system"
}
