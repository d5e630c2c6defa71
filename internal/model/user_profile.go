package model

import "time"

type UserProfile struct {
	UID          string    `gorm:"column:uid;primaryKey;size:128"`
	DisplayName  string    `gorm:"column:display_name;size:120;not null"`
	AvatarURL    *string   `gorm:"column:avatar_url;size:512"`
	Email        *string   `gorm:"column:email;size:255;uniqueIndex:uk_user_profiles_email"`
	PasswordHash string    `gorm:"column:password_hash;size:255"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
