package platform

import (
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains platform-specific user directories
type Info struct {
	OS           Platform
	HomeDir      string
	Username     string
	DownloadsDir string
	ConfigDir    string

	// ProtectedPaths are user directories whose contents must never be
	// reorganized (credentials, application state).
	ProtectedPaths []string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information for the current user. The
// XDG environment is re-read on every call.
func GetInfo() (*Info, error) {
	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	xdg.Reload()
	homeDir := xdg.Home
	if homeDir == "" {
		homeDir = currentUser.HomeDir
	}

	switch Detect() {
	case MacOS:
		return getMacOSInfo(homeDir, currentUser.Username), nil
	case Linux:
		return getLinuxInfo(homeDir, currentUser.Username), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// AppConfigDir returns the directory holding sortdir's own files
func (i *Info) AppConfigDir() string {
	return filepath.Join(i.ConfigDir, "sortdir")
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
