package balance

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type BalanceResponse struct {
	LeaveType string  `json:"leave_type"`
	Year      int     `json:"year"`
	Entitled  float64 `json:"entitled"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	Get(ctx context.Context, companyID, employeeID, leaveType string, year int) (BalanceResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Get(ctx context.Context, companyID, employeeID, leaveType string, year int) (BalanceResponse, error) {
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	b, err := s.repo.Get(ctx, companyID, employeeID, leaveType, year)
	if err != nil {
		return BalanceResponse{}, err
	}

	return BalanceResponse{
		LeaveType: b.LeaveType,
		Year:      b.Year,
		Entitled:  b.Entitled,
		Used:      b.Used,
		Remaining: b.Entitled - b.Used,
	}, nil
}
