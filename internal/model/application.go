package model

import "time"

// 报名申请状态
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// 课程类型
const (
	ProgramFullDay   = "full-day"
	ProgramHalfDayAM = "half-day-am"
	ProgramHalfDayPM = "half-day-pm"
)

// Application 入园申请表 — 对应 applications
// ApplicationID 是对外展示的申请编号（CRY + 日期 + 6 位随机码），创建后不可变
type Application struct {
	ID                 string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ApplicationID      string    `gorm:"type:varchar(20);not null;uniqueIndex"          json:"application_id"`
	UserID             string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	ChildFirstName     string    `gorm:"type:varchar(50);not null"                      json:"child_first_name"`
	ChildLastName      string    `gorm:"type:varchar(50);not null"                      json:"child_last_name"`
	ChildDOB           time.Time `gorm:"column:child_dob;type:date;not null"            json:"child_dob"`
	ChildGender        string    `gorm:"type:varchar(10);not null"                      json:"child_gender"`
	ParentName         string    `gorm:"type:varchar(100);not null"                     json:"parent_name"`
	ParentRelationship string    `gorm:"type:varchar(50);not null"                      json:"parent_relationship"`
	ParentEmail        string    `gorm:"type:varchar(100);not null"                     json:"parent_email"`
	ParentPhone        string    `gorm:"type:varchar(20);not null"                      json:"parent_phone"`
	PreferredBranch    string    `gorm:"type:varchar(20);not null;index"                json:"preferred_branch"`
	ProgramType        string    `gorm:"type:varchar(20);not null"                      json:"program_type"`
	Status             string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"submitted_at"`
	UpdatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	Notes              *string   `gorm:"type:text"                                      json:"notes,omitempty"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Application) TableName() string { return "applications" }
