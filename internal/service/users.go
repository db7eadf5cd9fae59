package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/models"
)

const minPasswordLength = 8

type RegisterInput struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"fullName"`
	Role     models.Role `json:"role"`
}

type UserUpdate struct {
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	FullName *string      `json:"fullName"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" || len(in.Username) > 100 {
		return nil, invalid("username is required and max length 100")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, invalid("valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}
	if in.Role == "" {
		in.Role = models.RoleExecutor
	}
	if in.Role != models.RoleCustomer && in.Role != models.RoleExecutor {
		return nil, invalid("role must be customer or executor")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        &in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, invalid("username or email already registered")
		}
		return nil, err
	}

	zap.L().Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: incorrect username or password", models.ErrUnauthorized)
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: incorrect username or password", models.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, invalid("inactive user")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer", User: user}, nil
}

// Authenticate возвращает активного пользователя по id из токена
func (s *Service) Authenticate(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: inactive user", models.ErrUnauthorized)
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, actor *models.User, page models.Page) ([]models.User, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, normalizePage(page))
}

// UpdateUser меняет профиль; роль и активность может менять только администратор
func (s *Service) UpdateUser(ctx context.Context, actor *models.User, id int64, in UserUpdate) (*models.User, error) {
	isAdmin := actor.Role == models.RoleAdmin
	if actor.ID != id && !isAdmin {
		return nil, forbidden("not enough permissions")
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !strings.Contains(email, "@") {
			return nil, invalid("valid email is required")
		}
		user.Email = &email
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, invalid("password must be at least %d characters", minPasswordLength)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.Role != nil || in.IsActive != nil {
		if !isAdmin {
			return nil, forbidden("only admin can change role or activity")
		}
		if in.Role != nil {
			if !in.Role.Valid() {
				return nil, invalid("unknown role %q", *in.Role)
			}
			user.Role = *in.Role
		}
		if in.IsActive != nil {
			user.IsActive = *in.IsActive
		}
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, invalid("email already registered")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor *models.User, id int64) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if actor.ID == id {
		return invalid("cannot delete yourself")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	zap.L().Info("user deleted", zap.Int64("user_id", id), zap.Int64("by", actor.ID))
	return nil
}

// ResolveTelegramUser находит пользователя по telegram_id или создаёт бот-аккаунт
func (s *Service) ResolveTelegramUser(ctx context.Context, telegramID int64, telegramUsername, fullName string) (*models.User, error) {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	// пароль случайный: войти через веб с таким аккаунтом нельзя
	password, err := randomHex(16)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Username:     fmt.Sprintf("tg_%d", telegramID),
		PasswordHash: hash,
		FullName:     fullName,
		Role:         models.RoleExecutor,
		TelegramID:   &telegramID,
		IsActive:     true,
	}
	if telegramUsername != "" {
		user.TelegramUsername = &telegramUsername
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// параллельный апдейт уже создал аккаунт
			return s.store.GetUserByTelegramID(ctx, telegramID)
		}
		return nil, err
	}

	zap.L().Info("bot user created", zap.Int64("user_id", user.ID), zap.Int64("telegram_id", telegramID))
	return user, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
