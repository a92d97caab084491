package auth

import (
	"fmt"
	"os/user"
	"slices"

	"github.com/wago-dev/wdx/pkg/util"
)

// PolicySpec is wdxd's access-control policy: which usernames are
// superusers, how usernames group, and which groups hold which
// permissions. It's the WDX-scoped analogue of a network-service spec
// file's superuser/group/permission block, with the per-service
// permission layer dropped since WDX has no services, only devices and
// parameters.
type PolicySpec struct {
	SuperUsers  []string            `yaml:"super_users"`
	UserGroups  map[string][]string `yaml:"user_groups"`
	Permissions map[string][]string `yaml:"permissions"`
}

// Checker validates user permissions against a PolicySpec.
type Checker struct {
	policy      *PolicySpec
	currentUser string
}

// NewChecker creates a permission checker.
func NewChecker(policy *PolicySpec) *Checker {
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	return &Checker{
		policy:      policy,
		currentUser: username,
	}
}

// SetUser overrides the current user (for testing or sudo).
func (c *Checker) SetUser(username string) {
	c.currentUser = username
}

// CurrentUser returns the current username.
func (c *Checker) CurrentUser() string {
	return c.currentUser
}

// Check verifies if the current user has a permission.
func (c *Checker) Check(permission Permission, ctx *Context) error {
	return c.CheckUser(c.currentUser, permission, ctx)
}

// CheckUser verifies if a specific user has a permission.
func (c *Checker) CheckUser(username string, permission Permission, ctx *Context) error {
	if c.isSuperUser(username) {
		return nil
	}

	if c.checkGlobalPermission(username, permission) {
		return nil
	}

	return &PermissionError{
		User:       username,
		Permission: permission,
		Context:    ctx,
	}
}

// IsSuperUser returns true if the current user is a superuser.
func (c *Checker) IsSuperUser() bool {
	return c.isSuperUser(c.currentUser)
}

func (c *Checker) isSuperUser(username string) bool {
	return slices.Contains(c.policy.SuperUsers, username)
}

func (c *Checker) checkGlobalPermission(username string, permission Permission) bool {
	return c.checkPermissionMap(username, permission, c.policy.Permissions)
}

// checkPermissionMap checks whether username has the given permission in
// permMap. It first checks the "all" wildcard key, then the specific
// permission key.
func (c *Checker) checkPermissionMap(username string, permission Permission, permMap map[string][]string) bool {
	if groups, ok := permMap["all"]; ok {
		if c.userInGroups(username, groups) {
			return true
		}
	}

	groups, ok := permMap[string(permission)]
	if !ok {
		return false
	}

	return c.userInGroups(username, groups)
}

func (c *Checker) userInGroups(username string, allowedGroups []string) bool {
	for _, group := range allowedGroups {
		if group == username {
			return true
		}
		if members, ok := c.policy.UserGroups[group]; ok {
			if slices.Contains(members, username) {
				return true
			}
		}
	}
	return false
}

// PermissionError represents a permission denial.
type PermissionError struct {
	User       string
	Permission Permission
	Context    *Context
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied: user '%s' does not have '%s' permission", e.User, e.Permission)
	if e.Context != nil {
		if e.Context.Device != "" {
			msg += fmt.Sprintf(" on device '%s'", e.Context.Device)
		}
		if e.Context.Resource != "" {
			msg += fmt.Sprintf(" for '%s'", e.Context.Resource)
		}
	}
	return msg
}

func (e *PermissionError) Unwrap() error {
	return util.ErrPermissionDenied
}
