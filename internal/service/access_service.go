package service

import (
	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/internal/repository"
)

// AccessService gates every inspection operation on project membership.
// The full role hierarchy lives in the member-management service; this
// only answers "does this user hold at least minRole in the project that
// owns this turbine".
type AccessService interface {
	CheckTurbineAccess(userID, turbineID, minRole string) error
}

type accessService struct {
	turbines repository.TurbineRepository
}

// NewAccessService creates a new AccessService
func NewAccessService(turbines repository.TurbineRepository) AccessService {
	return &accessService{turbines: turbines}
}

// CheckTurbineAccess resolves the turbine's project and compares the
// user's membership role against the required minimum
func (s *accessService) CheckTurbineAccess(userID, turbineID, minRole string) error {
	hierarchy, err := s.turbines.ResolveHierarchy(turbineID)
	if err != nil {
		return err
	}

	role, err := s.turbines.GetMemberRole(hierarchy.ProjectID, userID)
	if err != nil {
		return err
	}

	if domain.RoleLevel(role) < domain.RoleLevel(minRole) {
		return common.ErrForbidden
	}
	return nil
}
