package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pipeline-expert/internal/model"
)

var (
	ErrInvalidInput       = errors.New("username, display name and password are required")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredential  = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
)

// UserStore is the persistence surface the user directory needs.
type UserStore interface {
	Create(user *model.User) error
	GetByUsername(username string) (*model.User, error)
	List() ([]model.User, error)
	Delete(id string) error
}

type UserService struct {
	users UserStore
}

type CreateUserInput struct {
	Username    string
	DisplayName string
	Password    string
}

type LoginInput struct {
	Username string
	Password string
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Login(input LoginInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

func (s *UserService) Create(input CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	displayName := strings.TrimSpace(input.DisplayName)
	if username == "" || displayName == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List() ([]model.User, error) {
	return s.users.List()
}

// Delete is idempotent: removing an id that never existed still succeeds.
func (s *UserService) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.users.Delete(id)
}
