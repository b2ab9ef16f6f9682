// Package gate answers "may this role perform this action" from the
// comma-separated permission list stored on each role. Permissions follow the
// "resource:action" convention ("billing:create", "inventory:adjust") with
// "*" usable on either side; "*:*" grants everything.
package gate

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"vanik-system/internal/database/models"
)

var ErrPermissionDenied = errors.New("permission denied")

type Checker struct {
	db *gorm.DB
}

func NewChecker(db *gorm.DB) *Checker {
	return &Checker{db: db}
}

// Can reports whether roleID holds the requested permission.
func (c *Checker) Can(roleID int32, permission string) (bool, error) {
	var role models.Role
	if err := c.db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return HasPermission(role.Permissions, permission), nil
}

// Require returns ErrPermissionDenied unless roleID holds permission.
func (c *Checker) Require(roleID int32, permission string) error {
	ok, err := c.Can(roleID, permission)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// HasPermission matches one requested permission against a stored
// comma-separated grant list.
func HasPermission(granted, requested string) bool {
	reqResource, reqAction, ok := splitPermission(requested)
	if !ok {
		return false
	}
	for _, grant := range strings.Split(granted, ",") {
		resource, action, ok := splitPermission(strings.TrimSpace(grant))
		if !ok {
			continue
		}
		if (resource == "*" || resource == reqResource) &&
			(action == "*" || action == reqAction) {
			return true
		}
	}
	return false
}

func splitPermission(p string) (resource, action string, ok bool) {
	parts := strings.SplitN(p, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
