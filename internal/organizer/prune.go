package organizer

import (
	"context"
	"log/slog"
	"os"
)

// PruneFailure is a directory that could not be removed
type PruneFailure struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Prune removes directories in reverse of the given order. Directories are
// expected in pre-order, so every child is attempted before its parent.
// Failures are collected and never stop the loop; only cancellation does.
func Prune(ctx context.Context, directories []string, logger *slog.Logger) (pruned []string, failures []PruneFailure, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	for i := len(directories) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return pruned, failures, err
		}

		dir := directories[i]
		if rmErr := os.Remove(dir); rmErr != nil {
			opErr := CategorizeError(OpPrune, dir, rmErr)
			logger.Warn("directory not pruned", "path", dir, "reason", opErr.Reason.String())
			failures = append(failures, PruneFailure{Path: dir, Reason: opErr.Reason.String()})
			continue
		}
		pruned = append(pruned, dir)
	}

	return pruned, failures, nil
}
