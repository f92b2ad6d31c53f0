package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
)

func TestCheckTurbineAccess_RoleMeetsMinimum(t *testing.T) {
	turbines := new(mockTurbineRepo)
	svc := NewAccessService(turbines)

	turbines.On("ResolveHierarchy", "t-1").Return(&domain.TurbineHierarchy{
		ProjectID: "p-1", WindfarmID: "w-1", TurbineID: "t-1",
	}, nil)
	turbines.On("GetMemberRole", "p-1", "u-1").Return(domain.RoleEditor, nil)

	assert.NoError(t, svc.CheckTurbineAccess("u-1", "t-1", domain.RoleViewer))
	assert.NoError(t, svc.CheckTurbineAccess("u-1", "t-1", domain.RoleEditor))
}

func TestCheckTurbineAccess_RoleBelowMinimum(t *testing.T) {
	turbines := new(mockTurbineRepo)
	svc := NewAccessService(turbines)

	turbines.On("ResolveHierarchy", "t-1").Return(&domain.TurbineHierarchy{ProjectID: "p-1"}, nil)
	turbines.On("GetMemberRole", "p-1", "u-1").Return(domain.RoleViewer, nil)

	err := svc.CheckTurbineAccess("u-1", "t-1", domain.RoleEditor)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCheckTurbineAccess_NonMember(t *testing.T) {
	turbines := new(mockTurbineRepo)
	svc := NewAccessService(turbines)

	turbines.On("ResolveHierarchy", "t-1").Return(&domain.TurbineHierarchy{ProjectID: "p-1"}, nil)
	turbines.On("GetMemberRole", "p-1", "stranger").Return("", common.ErrForbidden)

	err := svc.CheckTurbineAccess("stranger", "t-1", domain.RoleViewer)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCheckTurbineAccess_UnknownTurbine(t *testing.T) {
	turbines := new(mockTurbineRepo)
	svc := NewAccessService(turbines)

	turbines.On("ResolveHierarchy", "missing").Return(nil, common.ErrTurbineNotFound)

	err := svc.CheckTurbineAccess("u-1", "missing", domain.RoleViewer)
	assert.ErrorIs(t, err, common.ErrTurbineNotFound)
}
