package user

import (
	"errors"
	"time"

	"github.com/ecosphere/core/internal/models"
)

type UpdateProfileDTO struct {
	Name      *string `json:"name"`
	Introduce *string `json:"introduce"`
	Avatar    *string `json:"avatar"`
	Mail      *string `json:"mail" binding:"omitempty,email"`
	URL       *string `json:"url"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Name          string     `json:"name"`
	Introduce     string     `json:"introduce"`
	Avatar        string     `json:"avatar"`
	Mail          string     `json:"mail"`
	URL           string     `json:"url"`
	Role          string     `json:"role"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
	Created       time.Time  `json:"created"`
}

// publicUserResponse omits login metadata and mail for unauthenticated lookups.
type publicUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Introduce string    `json:"introduce"`
	Avatar    string    `json:"avatar"`
	URL       string    `json:"url"`
	Role      string    `json:"role"`
	Created   time.Time `json:"created"`
}

var (
	errUserNotFound      = errors.New("user not found")
	errWrongPassword     = errors.New("wrong password")
	errPasswordSameAsOld = errors.New("new password must differ from the old one")
)

func toResponse(u *models.UserModel) *userResponse {
	return &userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Name:          u.Name,
		Introduce:     u.Introduce,
		Avatar:        u.Avatar,
		Mail:          u.Mail,
		URL:           u.URL,
		Role:          u.Role,
		LastLoginTime: u.LastLoginTime,
		LastLoginIP:   u.LastLoginIP,
		Created:       u.CreatedAt,
	}
}

func toPublicResponse(u *models.UserModel) *publicUserResponse {
	return &publicUserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Introduce: u.Introduce,
		Avatar:    u.Avatar,
		URL:       u.URL,
		Role:      u.Role,
		Created:   u.CreatedAt,
	}
}
