package model

import "time"

// Branch 校区表 — 对应 branches
// 初始化时播种两个固定校区，之后只读
type Branch struct {
	BranchID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"branch_id"`
	BranchCode string    `gorm:"type:varchar(20);not null;uniqueIndex"          json:"branch_code"`
	Name       string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Address    string    `gorm:"type:text;not null"                             json:"address"`
	Phone      string    `gorm:"type:varchar(20);not null"                      json:"phone"`
	Email      *string   `gorm:"type:varchar(100)"                              json:"email,omitempty"`
	Facilities *string   `gorm:"type:text"                                      json:"facilities,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Branch) TableName() string { return "branches" }
