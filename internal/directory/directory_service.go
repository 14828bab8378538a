package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const ApproverOptionsKeyPrefix = "directory:approvers:"

func GetApproverOptionsKey(companyID, role string) string {
	return ApproverOptionsKeyPrefix + companyID + ":" + role
}

//go:generate mockgen -source=directory_service.go -destination=mock/directory_service_mock.go -package=mock
type Service interface {
	GetUser(ctx context.Context, companyID, id string) (*User, error)
	ApproversByRole(ctx context.Context, companyID, role string) ([]User, error)
	ApproversByPosition(ctx context.Context, companyID, positionID string) ([]User, error)
	InvalidateApproverCache(ctx context.Context, companyID, role string)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("directory.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("directory.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetUser(ctx context.Context, companyID, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ApproversByRole returns the active users holding a role, cached in redis.
// Singleflight collapses concurrent cache misses for the same role into one
// database query.
func (s *service) ApproversByRole(ctx context.Context, companyID, role string) ([]User, error) {
	if s.rdb == nil {
		return s.repo.ListByRole(ctx, companyID, role)
	}

	key := GetApproverOptionsKey(companyID, role)
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var users []User
		if err := json.Unmarshal([]byte(cached), &users); err == nil {
			return users, nil
		}
		s.logger.Warn("approver cache decode failed, falling back to db",
			zap.String("key", key),
		)
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		users, err := s.repo.ListByRole(ctx, companyID, role)
		if err != nil {
			return nil, err
		}
		if payload, marshalErr := json.Marshal(users); marshalErr == nil {
			_ = s.rdb.Set(ctx, key, payload, 5*time.Minute).Err()
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]User), nil
}

func (s *service) ApproversByPosition(ctx context.Context, companyID, positionID string) ([]User, error) {
	return s.repo.ListByPosition(ctx, companyID, positionID)
}

func (s *service) InvalidateApproverCache(ctx context.Context, companyID, role string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, GetApproverOptionsKey(companyID, role)).Err(); err != nil {
		s.logger.Warn("invalidate approver cache failed",
			zap.String("company_id", companyID),
			zap.String("role", role),
			zap.Error(err),
		)
	}
}
