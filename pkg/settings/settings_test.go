package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if s.DefaultSocket != "" {
		t.Errorf("DefaultSocket should be empty, got %q", s.DefaultSocket)
	}
	if s.DefaultDevice != "" {
		t.Errorf("DefaultDevice should be empty, got %q", s.DefaultDevice)
	}
	if s.GetSocket("/run/wdx/frontend.sock") != "/run/wdx/frontend.sock" {
		t.Errorf("GetSocket() should fall back when unset")
	}
}

func TestSettings_SettersGetters(t *testing.T) {
	s := &Settings{}

	s.SetSocket("/tmp/custom.sock")
	if s.DefaultSocket != "/tmp/custom.sock" {
		t.Errorf("SetSocket() failed, got %q", s.DefaultSocket)
	}
	if s.GetSocket("/run/wdx/frontend.sock") != "/tmp/custom.sock" {
		t.Errorf("GetSocket() should prefer DefaultSocket")
	}

	s.SetDevice("boiler-1")
	if s.DefaultDevice != "boiler-1" {
		t.Errorf("SetDevice() failed, got %q", s.DefaultDevice)
	}
	if s.GetDevice() != "boiler-1" {
		t.Errorf("GetDevice() = %q, want %q", s.GetDevice(), "boiler-1")
	}
}

func TestSettings_GetDeviceFallsBackToLastDevice(t *testing.T) {
	s := &Settings{LastDevice: "boiler-2"}
	if s.GetDevice() != "boiler-2" {
		t.Errorf("GetDevice() = %q, want %q", s.GetDevice(), "boiler-2")
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		DefaultSocket: "/tmp/x.sock",
		DefaultDevice: "device",
		LastDevice:    "last",
		JSONOutput:    true,
		AutoConfirm:   true,
	}

	s.Clear()

	if s.DefaultSocket != "" || s.DefaultDevice != "" || s.LastDevice != "" || s.JSONOutput || s.AutoConfirm {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wdx-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "settings.json")

	original := &Settings{
		DefaultSocket: "/run/wdx/frontend.sock",
		DefaultDevice: "boiler-1",
		LastDevice:    "boiler-2",
		JSONOutput:    true,
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if loaded.DefaultSocket != original.DefaultSocket {
		t.Errorf("DefaultSocket mismatch: got %q, want %q", loaded.DefaultSocket, original.DefaultSocket)
	}
	if loaded.DefaultDevice != original.DefaultDevice {
		t.Errorf("DefaultDevice mismatch: got %q, want %q", loaded.DefaultDevice, original.DefaultDevice)
	}
	if loaded.LastDevice != original.LastDevice {
		t.Errorf("LastDevice mismatch: got %q, want %q", loaded.LastDevice, original.LastDevice)
	}
	if loaded.JSONOutput != original.JSONOutput {
		t.Errorf("JSONOutput mismatch: got %v, want %v", loaded.JSONOutput, original.JSONOutput)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	s, err := LoadFrom("/nonexistent/path/settings.json")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s == nil {
		t.Fatal("LoadFrom() should return non-nil Settings")
	}
	if s.DefaultSocket != "" || s.DefaultDevice != "" {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestSettings_LoadInvalidJSON(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wdx-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "settings.json")
	if err := os.WriteFile(path, []byte("invalid json {"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	_, err = LoadFrom(path)
	if err == nil {
		t.Error("LoadFrom() with invalid JSON should error")
	}
}

func TestSettings_SaveCreatesDirectory(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wdx-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "subdir", "nested", "settings.json")

	s := &Settings{DefaultDevice: "test"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if path == "" {
		t.Error("DefaultSettingsPath() should not be empty")
	}
	if !filepath.IsAbs(path) && path != "wdx_settings.json" {
		t.Errorf("DefaultSettingsPath() should be absolute or fallback, got %q", path)
	}
}

func TestLoad(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpDir, err := os.MkdirTemp("", "wdx-test-home-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	os.Setenv("HOME", tmpDir)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() with non-existent file should not error: %v", err)
	}
	if s == nil {
		t.Fatal("Load() should return non-nil Settings")
	}
	if s.DefaultDevice != "" {
		t.Error("Load() with non-existent file should return empty settings")
	}

	wdxDir := filepath.Join(tmpDir, ".wdx")
	if err := os.MkdirAll(wdxDir, 0755); err != nil {
		t.Fatalf("Failed to create .wdx dir: %v", err)
	}

	settingsPath := filepath.Join(wdxDir, "settings.json")
	testSettings := `{"default_socket":"/tmp/test.sock","default_device":"test-device"}`
	if err := os.WriteFile(settingsPath, []byte(testSettings), 0644); err != nil {
		t.Fatalf("Failed to write test settings: %v", err)
	}

	s, err = Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.DefaultSocket != "/tmp/test.sock" {
		t.Errorf("Load() DefaultSocket = %q, want %q", s.DefaultSocket, "/tmp/test.sock")
	}
	if s.DefaultDevice != "test-device" {
		t.Errorf("Load() DefaultDevice = %q, want %q", s.DefaultDevice, "test-device")
	}
}

func TestSave(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpDir, err := os.MkdirTemp("", "wdx-test-home-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	os.Setenv("HOME", tmpDir)

	s := &Settings{
		DefaultSocket: "/tmp/saved.sock",
		DefaultDevice: "saved-device",
	}

	if err := s.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, ".wdx", "settings.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Save() did not create file at %s", expectedPath)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after Save() failed: %v", err)
	}
	if loaded.DefaultSocket != "/tmp/saved.sock" {
		t.Errorf("After Save(), DefaultSocket = %q, want %q", loaded.DefaultSocket, "/tmp/saved.sock")
	}
	if loaded.DefaultDevice != "saved-device" {
		t.Errorf("After Save(), DefaultDevice = %q, want %q", loaded.DefaultDevice, "saved-device")
	}
}

func TestDefaultSettingsPath_NoHome(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	os.Unsetenv("HOME")

	path := DefaultSettingsPath()
	if path != "wdx_settings.json" {
		t.Errorf("DefaultSettingsPath() with no HOME = %q, want %q", path, "wdx_settings.json")
	}
}

func TestLoadFrom_ReadError(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wdx-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dirAsFile := filepath.Join(tmpDir, "settings.json")
	if err := os.Mkdir(dirAsFile, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	_, err = LoadFrom(dirAsFile)
	if err == nil {
		t.Error("LoadFrom() should error when path is a directory")
	}
}

func TestSaveTo_MkdirError(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wdx-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	blockingFile := filepath.Join(tmpDir, "blocker")
	if err := os.WriteFile(blockingFile, []byte("blocking"), 0644); err != nil {
		t.Fatalf("Failed to create blocking file: %v", err)
	}

	path := filepath.Join(blockingFile, "subdir", "settings.json")
	s := &Settings{DefaultDevice: "test"}

	err = s.SaveTo(path)
	if err == nil {
		t.Error("SaveTo() should fail when directory creation fails")
	}
}
