package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateXDG points HOME at a fresh directory and clears the XDG overrides
func isolateXDG(t *testing.T) string {
	t.Helper()
	// registered first so it runs after the environment is restored
	t.Cleanup(xdg.Reload)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DOWNLOAD_DIR", "")
	xdg.Reload()
	return home
}

func TestDetect(t *testing.T) {
	switch runtime.GOOS {
	case "darwin":
		assert.Equal(t, MacOS, Detect())
	case "linux":
		assert.Equal(t, Linux, Detect())
	default:
		assert.Equal(t, Unknown, Detect())
	}
}

func TestGetInfo(t *testing.T) {
	if Detect() == Unknown {
		t.Skip("unsupported platform")
	}
	home := isolateXDG(t)

	info, err := GetInfo()
	require.NoError(t, err)
	assert.Equal(t, home, info.HomeDir)
	assert.Equal(t, filepath.Join(home, "Downloads"), info.DownloadsDir)
	assert.Equal(t, filepath.Join(home, ".config", "sortdir"), info.AppConfigDir())
	assert.Contains(t, info.ProtectedPaths, filepath.Join(home, ".ssh"))
	assert.NotContains(t, info.ProtectedPaths, home)
}

func TestGetInfoFollowsHomeChanges(t *testing.T) {
	if Detect() == Unknown {
		t.Skip("unsupported platform")
	}
	isolateXDG(t)

	other := t.TempDir()
	t.Setenv("HOME", other)

	info, err := GetInfo()
	require.NoError(t, err)
	assert.Equal(t, other, info.HomeDir)
	assert.Equal(t, filepath.Join(other, ".config", "sortdir"), info.AppConfigDir())
}

func TestLinuxInfoUsesUserDirs(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("xdg-user-dirs is read on Linux")
	}
	home := isolateXDG(t)
	configDir := filepath.Join(home, "cfg")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "user-dirs.dirs"), []byte(
		"# written by xdg-user-dirs-update\n"+
			"XDG_DESKTOP_DIR=\"$HOME/Desktop\"\n"+
			"XDG_DOWNLOAD_DIR=\"$HOME/Завантаження\"\n"), 0644))
	t.Setenv("XDG_CONFIG_HOME", configDir)
	xdg.Reload()

	info := getLinuxInfo(home, "tester")
	assert.Equal(t, Linux, info.OS)
	assert.Equal(t, filepath.Join(home, "Завантаження"), info.DownloadsDir)
	assert.Equal(t, configDir, info.ConfigDir)
	assert.Equal(t, filepath.Join(configDir, "sortdir"), info.AppConfigDir())
	assert.Contains(t, info.ProtectedPaths, configDir)
}

func TestMacOSInfo(t *testing.T) {
	home := isolateXDG(t)

	info := getMacOSInfo(home, "u")
	assert.Equal(t, MacOS, info.OS)
	assert.Equal(t, filepath.Join(home, "Downloads"), info.DownloadsDir)
	assert.Equal(t, filepath.Join(home, ".config", "sortdir"), info.AppConfigDir())
	assert.Contains(t, info.ProtectedPaths, filepath.Join(home, "Library"))
}
