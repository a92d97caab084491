// Package auth provides permission-based access control for the parameter
// operations internal/authz.Wrapper checks on behalf of connected provider
// and client processes.
package auth

// Permission defines an action that can be controlled.
type Permission string

// Standard permissions. Parameter read/write/invoke are the operations
// internal/authz.Operation actually carries and Wrapper checks; the device
// and audit permissions are listed in StandardCategories, but no code path
// in this module checks them.
const (
	PermParameterRead   Permission = "parameter.read"
	PermParameterWrite  Permission = "parameter.write"
	PermParameterInvoke Permission = "parameter.invoke"

	PermDeviceConnect    Permission = "device.connect"
	PermDeviceLock       Permission = "device.lock"
	PermDeviceDisconnect Permission = "device.disconnect"

	PermAuditView Permission = "audit.view"

	PermAll Permission = "all" // Superuser - allows everything
)

// PermissionCategory groups related permissions.
type PermissionCategory struct {
	Name        string
	Description string
	Permissions []Permission
}

// StandardCategories defines standard permission categories.
var StandardCategories = []PermissionCategory{
	{
		Name:        "parameter",
		Description: "Device parameter read, write, and method invocation",
		Permissions: []Permission{PermParameterRead, PermParameterWrite, PermParameterInvoke},
	},
	{
		Name:        "device",
		Description: "Device connection and locking",
		Permissions: []Permission{PermDeviceConnect, PermDeviceLock, PermDeviceDisconnect},
	},
	{
		Name:        "audit",
		Description: "Audit log access",
		Permissions: []Permission{PermAuditView},
	},
}

// Context provides context for a permission check: which device and which
// parameter path (as Resource) the operation applies to.
type Context struct {
	Device   string
	Resource string
}

// NewContext creates a new permission context.
func NewContext() *Context {
	return &Context{}
}

// WithDevice sets the device context.
func (c *Context) WithDevice(device string) *Context {
	c.Device = device
	return c
}

// WithResource sets the parameter path context.
func (c *Context) WithResource(resource string) *Context {
	c.Resource = resource
	return c
}

// IsReadOnly returns true if the permission is read-only.
func (p Permission) IsReadOnly() bool {
	switch p {
	case PermParameterRead, PermAuditView:
		return true
	}
	return false
}

// IsWriteOperation returns true if the permission involves modification.
func (p Permission) IsWriteOperation() bool {
	return !p.IsReadOnly() && p != PermDeviceConnect && p != PermDeviceDisconnect
}

// RequiresLock returns true if the permission requires device lock.
func (p Permission) RequiresLock() bool {
	return p.IsWriteOperation()
}
