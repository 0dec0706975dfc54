package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleChef  = "chef"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserService struct {
	store *repository.Store
}

func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store}
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleChef:
		return true
	}
	return false
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" {
		return nil, validation("name and email are required")
	}
	if len(in.Password) < 6 {
		return nil, validation("password must be at least 6 characters")
	}
	if in.Role == "" {
		in.Role = RoleStaff
	}
	if !validRole(in.Role) {
		return nil, validation("unknown role %q", in.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &Error{Kind: ErrPersistence, Msg: "hash password", Cause: err}
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     in.Role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, dbError("user "+in.Email, err)
	}
	return user, nil
}

// Login checks the credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, dbError("load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, &Error{Kind: ErrPersistence, Msg: "generate token", Cause: err}
	}
	return token, user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, dbError("list users", err)
	}
	return users, nil
}

// EnsureAdmin creates the first admin account on an empty database.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return dbError("count users", err)
	}
	if n > 0 {
		return nil
	}
	_, err = s.Register(ctx, RegisterInput{Name: "Administrator", Email: email, Password: password, Role: RoleAdmin})
	if err == nil {
		utils.InfoLogger.WithField("email", email).Info("Seeded admin account")
	}
	return err
}
