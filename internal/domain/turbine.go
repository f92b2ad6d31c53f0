package domain

import (
	"time"

	"gorm.io/gorm"
)

// Project roles, ordered weakest to strongest
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleOwner  = "owner"
)

// RoleLevel maps a role name to its rank for minimum-role checks
func RoleLevel(role string) int {
	switch role {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// Project is the top of the asset hierarchy. Project/windfarm/turbine CRUD
// lives outside this service; the columns here are the ones the inspection
// core needs for storage paths and access checks.
type Project struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name      string    `gorm:"column:name;size:200" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Project) TableName() string {
	return "projects"
}

// Windfarm groups turbines within a project
type Windfarm struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	ProjectID string    `gorm:"column:project_id;size:36;index" json:"project_id"`
	Name      string    `gorm:"column:name;size:200" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Windfarm) TableName() string {
	return "windfarms"
}

// Turbine is the unit an inspection belongs to. Soft-deleted; deleting a
// turbine cascades a hard delete through its inspections.
type Turbine struct {
	ID         string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	WindfarmID string         `gorm:"column:windfarm_id;size:36;index" json:"windfarm_id"`
	Name       string         `gorm:"column:name;size:200" json:"name"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

// TableName returns the table name
func (Turbine) TableName() string {
	return "turbines"
}

// ProjectMember assigns a role to a user within a project
type ProjectMember struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID string    `gorm:"column:project_id;size:36;index:idx_project_user" json:"project_id"`
	UserID    string    `gorm:"column:user_id;size:36;index:idx_project_user" json:"user_id"`
	Role      string    `gorm:"column:role;size:20" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (ProjectMember) TableName() string {
	return "project_members"
}

// User holds the minimum identity columns the inspection core references
type User struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name      string    `gorm:"column:name;size:100" json:"name"`
	Email     string    `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// TurbineHierarchy is the resolved chain used to build storage paths
type TurbineHierarchy struct {
	TurbineID  string
	WindfarmID string
	ProjectID  string
}
