package models

import "time"

const MemberTable = "members"

// Member 社員帳號；Password 存 bcrypt 雜湊，對外不序列化
type Member struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StudentID string `gorm:"size:50;uniqueIndex;not null" json:"studentId"`
	Name      string `gorm:"size:100;not null" json:"name"`
	ClassName string `gorm:"size:100;not null" json:"className"`
	ClubRole  string `gorm:"size:50;not null" json:"clubRole"`
	Password  string `gorm:"size:255;not null" json:"-"`
	IsAdmin   bool   `gorm:"not null;default:false" json:"isAdmin"`

	LastSeenAt *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (Member) TableName() string { return MemberTable }
