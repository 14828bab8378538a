package rbac

import (
	"sync"

	"go-leaveflow/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadCompanyPolicy(companyID string) error
	Enforce(req domain.EnforceRequest) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.Mutex
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   l,
	}
}

func (s *service) LoadCompanyPolicy(companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadCompanyPolicyUnlocked(companyID)
}

func (s *service) loadCompanyPolicyUnlocked(companyID string) error {
	s.enforcer.ClearPolicy()

	// Grouping policy: employee -> role, scoped by company
	employeeRoles, err := s.repo.GetEmployeeRoles(companyID)
	if err != nil {
		return err
	}
	s.logger.Debug("rbac load policy",
		zap.String("company_id", companyID),
		zap.Int("employee_roles", len(employeeRoles)),
	)

	for _, er := range employeeRoles {
		_, err := s.enforcer.AddGroupingPolicy(
			er.EmployeeID,
			er.RoleID,
			companyID,
		)
		if err != nil {
			return err
		}
	}

	// Permission policy: role -> resource/action
	rolePerms, err := s.repo.GetRolePermissions(companyID)
	if err != nil {
		return err
	}
	s.logger.Debug("rbac load policy",
		zap.String("company_id", companyID),
		zap.Int("role_permissions", len(rolePerms)),
	)

	for _, rp := range rolePerms {
		_, err := s.enforcer.AddPolicy(
			rp.RoleID,
			companyID,
			rp.Resource,
			rp.Action,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadCompanyPolicyUnlocked(req.CompanyID); err != nil {
		return false, err
	}

	return s.enforcer.Enforce(req.EmployeeID, req.CompanyID, req.Resource, req.Action)
}
