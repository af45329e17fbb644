package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/monolog_auth/internal/models"
)

var ErrUserNotFound = errors.New("user not found")
var ErrDuplicateUser = errors.New("user already exists")

type UserRepo struct {
	DB *gorm.DB
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	var existing models.User
	err := r.DB.WithContext(ctx).
		Where("email = ? OR nickname = ?", u.Email, u.Nickname).
		First(&existing).Error
	if err == nil {
		return ErrDuplicateUser
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.DB.WithContext(ctx).Create(u).Error
}
