package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission represents a specific permission in the authorization system.
// Permissions define granular access rights in resource:action form
// (e.g., "users:read") and are assigned to roles.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	// Name is the unique permission identifier in resource:action format.
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// IsActive indicates whether the permission is active.
	IsActive bool `gorm:"default:true" json:"isActive"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}

// BeforeCreate assigns a uuid primary key when none was set.
func (p *Permission) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	return nil
}
