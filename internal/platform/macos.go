package platform

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// getMacOSInfo returns platform-specific information for macOS. sortdir
// keeps its files under ~/.config rather than Application Support.
func getMacOSInfo(homeDir, username string) *Info {
	return &Info{
		OS:           MacOS,
		HomeDir:      homeDir,
		Username:     username,
		DownloadsDir: xdg.UserDirs.Download,
		ConfigDir:    filepath.Join(homeDir, ".config"),
		ProtectedPaths: []string{
			filepath.Join(homeDir, "Library"),
			filepath.Join(homeDir, ".ssh"),
			filepath.Join(homeDir, ".config"),
			"/private",
		},
	}
}
