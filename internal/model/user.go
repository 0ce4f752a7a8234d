package model

import "time"

// 用户角色
const (
	RoleParent = "parent"
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string     `gorm:"type:varchar(100);not null;uniqueIndex"         json:"email"`
	Phone        string     `gorm:"type:varchar(20);not null"                      json:"phone"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;default:'parent'"     json:"role"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
