package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dryshift/internal/model"
	"dryshift/internal/notify"
	"dryshift/internal/repository"
	"dryshift/pkg/clock"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrUserNotApproved = errors.New("用户尚未通过审核")
	ErrInvalidUserID   = errors.New("用户 ID 无效")
)

// RegisterResult 注册结果；Event 仅在首次创建且未审核时非空
type RegisterResult struct {
	User    model.User
	Created bool
	Event   *notify.Event
}

// ApprovalResult 审核结果
type ApprovalResult struct {
	User  model.User
	Event notify.Event
}

// UserService 用户业务接口
type UserService interface {
	// Register 首次联系时创建用户，之后刷新用户名
	Register(ctx context.Context, userID int64, username *string) (*RegisterResult, error)
	Get(ctx context.Context, userID int64) (*model.User, error)
	// SetApproval 外部审核决定
	SetApproval(ctx context.Context, userID int64, approved bool) (*ApprovalResult, error)
	// ListApproved 已审核用户，供选择搭档
	ListApproved(ctx context.Context) ([]model.User, error)
}

type userService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) UserService {
	return &userService{repo: repo, clock: clk, logger: logger}
}

// ────────────────────── Register ──────────────────────

func (s *userService) Register(ctx context.Context, userID int64, username *string) (*RegisterResult, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	username = normalizeUsername(username)

	created := false
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询用户失败", zap.Int64("user_id", userID), zap.Error(err))
			return nil, storageError(err)
		}
		created = true
	}

	if err := s.repo.User.Upsert(ctx, &model.User{UserID: userID, Username: username}); err != nil {
		s.logger.Error("保存用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}

	result := &RegisterResult{User: *user, Created: created}
	if created && !user.IsApproved {
		result.Event = &notify.Event{
			Type:       notify.EventUserRegistered,
			OccurredAt: s.clock.Now(),
			UserID:     userID,
			Username:   user.DisplayName(),
		}
		s.logger.Info("新用户注册", zap.Int64("user_id", userID))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *userService) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}
	return user, nil
}

// ────────────────────── SetApproval ──────────────────────

func (s *userService) SetApproval(ctx context.Context, userID int64, approved bool) (*ApprovalResult, error) {
	if err := s.repo.User.SetApproved(ctx, userID, approved); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新审核状态失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户审核状态已更新", zap.Int64("user_id", userID), zap.Bool("approved", approved))
	return &ApprovalResult{
		User: *user,
		Event: notify.Event{
			Type:       notify.EventUserApproval,
			OccurredAt: s.clock.Now(),
			UserID:     userID,
			Username:   user.DisplayName(),
			Approved:   &approved,
		},
	}, nil
}

// ────────────────────── ListApproved ──────────────────────

func (s *userService) ListApproved(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.User.ListApproved(ctx)
	if err != nil {
		s.logger.Error("列出已审核用户失败", zap.Error(err))
		return nil, storageError(err)
	}
	return users, nil
}

func normalizeUsername(username *string) *string {
	if username == nil {
		return nil
	}
	name := strings.TrimPrefix(strings.TrimSpace(*username), "@")
	if name == "" {
		return nil
	}
	return &name
}
