package memstore

import (
	"context"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
)

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (s *Store) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*domain.User, 0, len(s.users))
	for id := int64(1); id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

// checkUnique 调用方需持有锁
func (s *Store) checkUnique(user *domain.User) error {
	for _, u := range s.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return domain.ErrDuplicateUsername
		}
		if user.Email != "" && u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(user); err != nil {
		return err
	}

	user.ID = s.id()
	user.CreatedAt = s.now()
	user.Version = 1
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok || stored.Version != user.Version {
		return domain.ErrEditConflict
	}
	if err := s.checkUnique(user); err != nil {
		return err
	}

	user.Version++
	user.Username = stored.Username
	user.CreatedAt = stored.CreatedAt
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrRecordNotFound
	}
	for _, shift := range s.shifts {
		if shift.UserID == id {
			return domain.ErrRecordInUse
		}
	}
	for _, r := range s.swapRequests {
		if r.Involves(id) {
			return domain.ErrRecordInUse
		}
	}
	for _, r := range s.overtimeRequests {
		if r.UserID == id {
			return domain.ErrRecordInUse
		}
	}

	// 与数据库中 ON DELETE SET NULL 的行为一致
	for _, shift := range s.shifts {
		if shift.AssignedBy == id {
			shift.AssignedBy = 0
		}
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users), nil
}
