package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// 会員（認証・認可の単位）
type User struct {
	ID       string `json:"_id" gorm:"type:uuid;primaryKey"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Username string `json:"userName" gorm:"column:username;uniqueIndex;not null"`

	// bcryptハッシュ。レスポンスにもログにも出さない
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`

	IsAdmin bool `json:"isAdmin" gorm:"not null"`

	// 現在有効なrefresh token（1ユーザー1つ）
	RefreshToken *string `json:"-" gorm:"column:refresh_token"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// USER / ADMIN
func (u *User) Role() Role {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// password_hash と refresh_token を落としたコピーを返す。
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	safe := *u
	safe.PasswordHash = ""
	safe.RefreshToken = nil
	return &safe
}
