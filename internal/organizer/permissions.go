package organizer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// checkWritable reports whether the current user can create and remove
// entries in dir
func checkWritable(dir string) error {
	if os.Geteuid() == 0 {
		return nil
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	return nil
}
