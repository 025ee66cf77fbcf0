package service

import (
	"context"

	"github.com/mbazhenoff/trainings_bot/internal/model"
	"go.uber.org/zap"
)

// UserStore срез хранилища для работы с пользователями и приглашениями
type UserStore interface {
	UpsertUser(ctx context.Context, user *model.User) error
	UserByID(ctx context.Context, id int64) (*model.User, error)
	SetUserGroup(ctx context.Context, userID, groupID int64) error
	SetNotifyOnOpen(ctx context.Context, userID int64, enabled bool) error
	InviteByToken(ctx context.Context, token string) (*model.Invite, error)
	GroupByID(ctx context.Context, id int64) (*model.Group, error)
}

// UserService регистрация пользователей и вступление в группы по приглашениям
type UserService struct {
	store  UserStore
	logger *zap.Logger
}

func NewUserService(store UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// Register создаёт пользователя или освежает имя существующего
func (s *UserService) Register(ctx context.Context, id int64, username, fullName string) (*model.User, error) {
	user := &model.User{
		ID:       id,
		Username: username,
		FullName: fullName,
	}

	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetByID получает пользователя
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// JoinGroupByInvite вступает в группу по токену приглашения
func (s *UserService) JoinGroupByInvite(ctx context.Context, userID int64, token string) (*model.Group, error) {
	invite, err := s.store.InviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invite == nil || !invite.IsActive {
		return nil, ErrInviteNotFound
	}

	group, err := s.store.GroupByID(ctx, invite.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil || !group.IsActive {
		return nil, ErrGroupNotFound
	}

	if err := s.store.SetUserGroup(ctx, userID, group.ID); err != nil {
		return nil, err
	}

	s.logger.Info("User joined group",
		zap.Int64("user_id", userID),
		zap.Int64("group_id", group.ID))

	return group, nil
}

// SetNotifyOnOpen включает или выключает уведомления об открытии записи
func (s *UserService) SetNotifyOnOpen(ctx context.Context, userID int64, enabled bool) error {
	return s.store.SetNotifyOnOpen(ctx, userID, enabled)
}
