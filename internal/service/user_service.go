package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/user"
)

// RegisterRequest 顾客注册
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

type UserService struct {
	repo user.Repository
	jwt  *config.JWTConfig
}

func NewUserService(repo user.Repository, jwt *config.JWTConfig) *UserService {
	return &UserService{repo: repo, jwt: jwt}
}

// Register 注册顾客账号
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*user.User, error) {
	return s.create(ctx, req, user.TypeCustomer)
}

// CreateAdmin 创建管理员账号，供 cmd/createadmin 使用
func (s *UserService) CreateAdmin(ctx context.Context, req *RegisterRequest) (*user.User, error) {
	return s.create(ctx, req, user.TypeAdmin)
}

func (s *UserService) create(ctx context.Context, req *RegisterRequest, typ user.Type) (*user.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalidInput("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, invalidInput("password must be at least 8 characters")
	}
	if len(req.PhoneNumber) > maxPhoneLen {
		return nil, invalidInput("phone number must be at most 15 characters")
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, invalidInput("email already registered")
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		Email:       email,
		Password:    string(hash),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		UserType:    typ,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Address:     strings.TrimSpace(req.Address),
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login 登录并返回 JWT
func (s *UserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	if !u.IsActive || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return "", nil, ErrUnauthorized
	}
	token, err := auth.GenerateToken(s.jwt, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// AdminLogin 只允许管理员登录后台
func (s *UserService) AdminLogin(ctx context.Context, email, password string) (string, *user.User, error) {
	token, u, err := s.Login(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if !u.IsAdmin() {
		return "", nil, ErrForbidden
	}
	return token, u, nil
}

// Authenticate 解析 token 并加载当前用户
func (s *UserService) Authenticate(ctx context.Context, token string) (*user.User, error) {
	claims, err := auth.ParseToken(s.jwt, token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}
