package auth

import (
	"errors"
	"testing"

	"github.com/wago-dev/wdx/pkg/util"
)

func TestContext_Chaining(t *testing.T) {
	ctx := NewContext().
		WithDevice("boiler-1").
		WithResource("temperature.setpoint")

	if ctx.Device != "boiler-1" {
		t.Errorf("Device = %q", ctx.Device)
	}
	if ctx.Resource != "temperature.setpoint" {
		t.Errorf("Resource = %q", ctx.Resource)
	}
}

func testPolicy() *PolicySpec {
	return &PolicySpec{
		SuperUsers: []string{"admin", "root"},
		UserGroups: map[string][]string{
			"operators": {"alice", "bob"},
			"viewers":   {"eve"},
		},
		Permissions: map[string][]string{
			"all":             {"operators"},
			"parameter.write": {"operators"},
			"parameter.read":  {"operators", "viewers"},
			"audit.view":      {"operators", "viewers"},
		},
	}
}

func TestChecker_SuperUser(t *testing.T) {
	checker := NewChecker(testPolicy())
	checker.SetUser("admin")

	if err := checker.Check(PermParameterWrite, nil); err != nil {
		t.Errorf("Superuser should be allowed: %v", err)
	}
	if err := checker.Check(PermDeviceLock, nil); err != nil {
		t.Errorf("Superuser should be allowed: %v", err)
	}

	if !checker.IsSuperUser() {
		t.Error("admin should be superuser")
	}
}

func TestChecker_GlobalPermissions(t *testing.T) {
	checker := NewChecker(testPolicy())

	t.Run("user in allowed group", func(t *testing.T) {
		checker.SetUser("alice") // in operators
		if err := checker.Check(PermParameterRead, nil); err != nil {
			t.Errorf("alice (operators) should have parameter.read: %v", err)
		}
	})

	t.Run("user with 'all' permission", func(t *testing.T) {
		checker.SetUser("bob") // in operators, which has 'all'
		if err := checker.Check(PermDeviceConnect, nil); err != nil {
			t.Errorf("bob (operators with 'all') should have device.connect: %v", err)
		}
	})

	t.Run("user without permission", func(t *testing.T) {
		checker.SetUser("eve") // in viewers only
		if err := checker.Check(PermParameterWrite, nil); err == nil {
			t.Error("eve (viewers) should not have parameter.write")
		}
	})
}

func TestChecker_PermissionError(t *testing.T) {
	checker := NewChecker(testPolicy())
	checker.SetUser("eve")

	ctx := NewContext().WithDevice("boiler-1").WithResource("setpoint")
	err := checker.Check(PermParameterWrite, ctx)

	if err == nil {
		t.Fatal("Expected error")
	}

	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("Expected PermissionError, got %T", err)
	}

	if permErr.User != "eve" {
		t.Errorf("User = %q", permErr.User)
	}
	if permErr.Permission != PermParameterWrite {
		t.Errorf("Permission = %q", permErr.Permission)
	}

	msg := err.Error()
	if msg == "" {
		t.Error("Error message should not be empty")
	}

	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Error("Should unwrap to ErrPermissionDenied")
	}
}

func TestChecker_DirectUserPermission(t *testing.T) {
	policy := &PolicySpec{
		Permissions: map[string][]string{
			"parameter.write": {"direct-user"}, // direct user, not a group
		},
	}
	checker := NewChecker(policy)
	checker.SetUser("direct-user")

	if err := checker.Check(PermParameterWrite, nil); err != nil {
		t.Errorf("Direct user permission should work: %v", err)
	}
}

func TestChecker_CurrentUser(t *testing.T) {
	checker := NewChecker(testPolicy())

	if checker.CurrentUser() == "" {
		t.Error("CurrentUser should not be empty after NewChecker")
	}

	checker.SetUser("test-user")
	if checker.CurrentUser() != "test-user" {
		t.Errorf("CurrentUser() = %q, want %q", checker.CurrentUser(), "test-user")
	}
}

func TestChecker_GlobalPermissionNotFound(t *testing.T) {
	policy := &PolicySpec{
		SuperUsers:  []string{},
		UserGroups:  map[string][]string{},
		Permissions: map[string][]string{}, // no permissions defined
	}
	checker := NewChecker(policy)
	checker.SetUser("anyone")

	err := checker.Check(PermParameterWrite, nil)
	if err == nil {
		t.Error("Should be denied when no permissions defined")
	}
}

func TestChecker_GlobalAllPermissionNotGranted(t *testing.T) {
	policy := &PolicySpec{
		SuperUsers: []string{},
		UserGroups: map[string][]string{
			"admins": {"admin-user"},
			"users":  {"normal-user"},
		},
		Permissions: map[string][]string{
			"all": {"admins"}, // only admins have 'all'
		},
	}
	checker := NewChecker(policy)
	checker.SetUser("normal-user")

	err := checker.Check(PermParameterWrite, nil)
	if err == nil {
		t.Error("normal-user should not have permission via 'all'")
	}
}

func TestPermissionError_ContextVariations(t *testing.T) {
	t.Run("nil context", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermParameterWrite,
			Context:    nil,
		}
		msg := err.Error()
		if msg == "" {
			t.Error("Error message should not be empty")
		}
		if contains(msg, "on device") || contains(msg, "for '") {
			t.Error("Should not mention device/resource when context is nil")
		}
	})

	t.Run("context with resource only", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermParameterWrite,
			Context:    &Context{Resource: "setpoint"},
		}
		msg := err.Error()
		if !contains(msg, "setpoint") {
			t.Error("Should mention resource name")
		}
	})

	t.Run("context with device only", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermParameterWrite,
			Context:    &Context{Device: "boiler-1"},
		}
		msg := err.Error()
		if !contains(msg, "boiler-1") {
			t.Error("Should mention device name")
		}
	})

	t.Run("context with both device and resource", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermParameterWrite,
			Context:    &Context{Device: "boiler-1", Resource: "setpoint"},
		}
		msg := err.Error()
		if !contains(msg, "boiler-1") || !contains(msg, "setpoint") {
			t.Error("Should mention both device and resource")
		}
	})
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
