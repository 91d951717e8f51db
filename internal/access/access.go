// Package access holds the role rules for every protected operation.
package access

import (
	"fmt"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/models"
)

// Caller is the resolved identity behind a request.
type Caller struct {
	ID   string
	Name string
	Role models.Role
}

type Permission string

const (
	EditSections      Permission = "edit sections"
	EditDocuments     Permission = "edit documents"
	TranslateDocument Permission = "translate documents"
	UploadMedia       Permission = "upload media"
	DeleteDocument    Permission = "delete documents"
	ManageUsers       Permission = "manage users"
)

var grants = map[Permission][]models.Role{
	EditSections:      {models.RoleAdmin},
	EditDocuments:     {models.RoleAdmin, models.RoleEditor},
	TranslateDocument: {models.RoleAdmin, models.RoleEditor},
	UploadMedia:       {models.RoleAdmin, models.RoleEditor},
	DeleteDocument:    {models.RoleAdmin},
	ManageUsers:       {models.RoleAdmin},
}

// Allowed reports whether c holds a role granted p.
func Allowed(c Caller, p Permission) bool {
	for _, r := range grants[p] {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Check returns an ErrForbidden-wrapped error when c may not perform p.
func Check(c Caller, p Permission) error {
	if c.ID == "" {
		return fmt.Errorf("%w: no caller", apperr.ErrUnauthorized)
	}
	if !Allowed(c, p) {
		return fmt.Errorf("%w: role %q may not %s", apperr.ErrForbidden, c.Role, p)
	}
	return nil
}
