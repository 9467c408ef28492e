package platform

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// getLinuxInfo returns platform-specific information for Linux. Config and
// Downloads follow XDG_CONFIG_HOME and xdg-user-dirs.
func getLinuxInfo(homeDir, username string) *Info {
	configDir := xdg.ConfigHome

	return &Info{
		OS:           Linux,
		HomeDir:      homeDir,
		Username:     username,
		DownloadsDir: xdg.UserDirs.Download,
		ConfigDir:    configDir,
		ProtectedPaths: []string{
			configDir,
			filepath.Join(homeDir, ".ssh"),
			filepath.Join(homeDir, ".gnupg"),
			filepath.Join(homeDir, ".local"),
		},
	}
}
