package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserInput struct {
	Username string
	FullName string
	Email    string
	Role     domain.Role
	Password string
}

type UpdateUserInput struct {
	FullName *string
	Email    *string
	Role     *domain.Role
}

func userWriteError(err error, id int64) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		return domain.NewValidationError("username", "用户名已存在")
	case errors.Is(err, domain.ErrDuplicateEmail):
		return domain.NewValidationError("email", "邮箱已存在")
	case errors.Is(err, domain.ErrEditConflict):
		return domain.NewConflictError("用户 %d 已被修改，请刷新后重试", id)
	case isNotFound(err):
		return domain.NewNotFoundError(entityUser, id)
	default:
		return err
	}
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, domain.NewValidationError("username", "用户名不能为空")
	}
	if !in.Role.IsValid() {
		return nil, domain.NewValidationError("role", "角色只能为 Agent、TeamLeader 或 Admin")
	}
	if in.Password == "" {
		return nil, domain.NewValidationError("password", "密码不能为空")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("无法生成密码哈希: %w", err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Email:        in.Email,
		Role:         in.Role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, userWriteError(err, 0)
	}

	s.logger.Info("已创建用户", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// EnsureUser 确保用户名为 in.Username 的用户存在，已存在时不做任何修改。
// 用于启动时创建初始管理员。
func (s *Service) EnsureUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	existing, err := s.store.GetUserByUsername(ctx, in.Username)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	user, err := s.CreateUser(ctx, in)
	if err != nil {
		// 并发启动时另一个实例可能已经创建了该用户
		var verr *domain.ValidationError
		if errors.As(err, &verr) && verr.Field == "username" {
			return s.store.GetUserByUsername(ctx, in.Username)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, entityUser, id)
	}
	return user, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.NotFoundError{Entity: entityUser}
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.GetAllUsers(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, entityUser, id)
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, domain.NewValidationError("role", "角色只能为 Agent、TeamLeader 或 Admin")
		}
		user.Role = *in.Role
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, userWriteError(err, id)
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, id int64, password string) error {
	if password == "" {
		return domain.NewValidationError("password", "密码不能为空")
	}

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return notFound(err, entityUser, id)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("无法生成密码哈希: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return userWriteError(err, id)
	}
	return nil
}

// Authenticate 校验用户名和密码，两者任一不正确都返回 domain.ErrInvalidCredentials
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.store.GetUserByID(ctx, id); err != nil {
		return notFound(err, entityUser, id)
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordInUse):
			return domain.NewConflictError("用户 %d 仍有班次或申请记录，无法删除", id)
		case isNotFound(err):
			return domain.NewNotFoundError(entityUser, id)
		default:
			return fmt.Errorf("删除用户失败: %w", err)
		}
	}

	s.logger.Info("已删除用户", "user_id", id)
	return nil
}
