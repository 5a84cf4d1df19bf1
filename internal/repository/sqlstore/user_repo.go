package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/user"
)

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, user.ErrNotFound)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err, user.ErrNotFound)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) ListActiveAdminEmails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("user_type = ? AND is_active = ?", user.TypeAdmin, true).
		Order("id").
		Pluck("email", &emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *userRepo) SetContactDefaults(ctx context.Context, id int64, phone, address *string) error {
	updates := map[string]interface{}{}
	if phone != nil {
		updates["phone_number"] = *phone
	}
	if address != nil {
		updates["address"] = *address
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Updates(updates).Error
}
