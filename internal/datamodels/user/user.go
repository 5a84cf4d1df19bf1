package user

import (
	"context"
	"errors"
	"time"
)

// Type 用户类型
type Type string

const (
	TypeCustomer Type = "customer"
	TypeAdmin    Type = "admin"
)

var ErrNotFound = errors.New("user not found")

// User 用户模型，PhoneNumber / Address 为下单默认联系方式
type User struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password    string    `gorm:"size:255;not null" json:"-"` // bcrypt
	FirstName   string    `gorm:"size:150" json:"first_name"`
	LastName    string    `gorm:"size:150" json:"last_name"`
	UserType    Type      `gorm:"size:10;index;not null" json:"user_type"`
	PhoneNumber string    `gorm:"size:15" json:"phone_number"`
	Address     string    `gorm:"type:text" json:"address"`
	IsActive    bool      `gorm:"index;not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) IsCustomer() bool {
	return u.UserType == TypeCustomer
}

func (u *User) IsAdmin() bool {
	return u.UserType == TypeAdmin
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	// ListActiveAdminEmails 返回所有启用中的管理员邮箱
	ListActiveAdminEmails(ctx context.Context) ([]string, error)
	// SetContactDefaults 只更新非 nil 的字段
	SetContactDefaults(ctx context.Context, id int64, phone, address *string) error
}
