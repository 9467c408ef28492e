package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"

	"github.com/fenilsonani/sortdir/internal/naming"
	"github.com/fenilsonani/sortdir/internal/security"
)

// ErrorReason categorizes why a filesystem operation failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorNotFound
	ErrorNotEmpty
	ErrorExists
	ErrorInvalidPath
	ErrorUnknown
)

var reasonNames = map[ErrorReason]string{
	ErrorPermissionDenied: "Permission denied",
	ErrorNotFound:         "Not found",
	ErrorNotEmpty:         "Directory not empty",
	ErrorExists:           "Destination exists",
	ErrorInvalidPath:      "Invalid path",
	ErrorUnknown:          "Unknown error",
}

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	if name, ok := reasonNames[e]; ok {
		return name
	}
	return "Unspecified error"
}

// MarshalText encodes the reason by name for JSON and YAML reports
func (e ErrorReason) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes a reason written by MarshalText
func (e *ErrorReason) UnmarshalText(text []byte) error {
	for reason, name := range reasonNames {
		if strings.EqualFold(name, string(text)) {
			*e = reason
			return nil
		}
	}
	*e = ErrorUnknown
	return nil
}

// OpError is a failed filesystem operation on a single path
type OpError struct {
	Op       string      `json:"op" yaml:"op"`
	Path     string      `json:"path" yaml:"path"`
	Reason   ErrorReason `json:"reason" yaml:"reason"`
	Detail   string      `json:"detail,omitempty" yaml:"detail,omitempty"`
	Original error       `json:"-" yaml:"-"`
}

// Error implements the error interface
func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %s (%v)", e.Op, e.Path, e.Reason, e.Original)
}

func (e *OpError) Unwrap() error {
	return e.Original
}

// CategorizeError wraps err in an OpError with a reason derived from the
// underlying os or syscall error
func CategorizeError(op, path string, err error) *OpError {
	if err == nil {
		return nil
	}

	opErr := &OpError{
		Op:       op,
		Path:     path,
		Reason:   ErrorUnknown,
		Detail:   err.Error(),
		Original: err,
	}

	// ENOTEMPTY satisfies fs.ErrExist, so errno is checked first
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			opErr.Reason = ErrorPermissionDenied
		case syscall.ENOENT:
			opErr.Reason = ErrorNotFound
		case syscall.ENOTEMPTY:
			opErr.Reason = ErrorNotEmpty
		case syscall.EEXIST:
			if op == OpPrune {
				opErr.Reason = ErrorNotEmpty
			} else {
				opErr.Reason = ErrorExists
			}
		case syscall.EINVAL, syscall.ENAMETOOLONG:
			opErr.Reason = ErrorInvalidPath
		}
		return opErr
	}

	switch {
	case errors.Is(err, naming.ErrDestinationExists), errors.Is(err, fs.ErrExist):
		opErr.Reason = ErrorExists
	case errors.Is(err, fs.ErrNotExist):
		opErr.Reason = ErrorNotFound
	case errors.Is(err, fs.ErrPermission):
		opErr.Reason = ErrorPermissionDenied
	case errors.Is(err, security.ErrPathEscape):
		opErr.Reason = ErrorInvalidPath
	}

	return opErr
}

// Operation names used in OpError.Op
const (
	OpMkdir   = "mkdir"
	OpMove    = "move"
	OpExtract = "extract"
	OpDelete  = "delete"
	OpPrune   = "prune"
	OpScan    = "scan"
	OpRoot    = "validate"
)

// GroupErrors groups operation errors by reason
func GroupErrors(errs []*OpError) map[ErrorReason][]*OpError {
	grouped := make(map[ErrorReason][]*OpError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errs []*OpError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	var b strings.Builder
	b.WriteString("\nIssues encountered:\n")

	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		fmt.Fprintf(&b, "   ├─ Permission denied: %d paths\n", len(perms))
		b.WriteString("   │  └─ Tip: check ownership of the folder being sorted\n")
	}
	if exists, ok := grouped[ErrorExists]; ok {
		fmt.Fprintf(&b, "   ├─ Destination exists: %d files left in place\n", len(exists))
		b.WriteString("   │  └─ Tip: use --collision suffix to keep both files\n")
	}
	if notFound, ok := grouped[ErrorNotFound]; ok {
		fmt.Fprintf(&b, "   ├─ Vanished during the run: %d paths\n", len(notFound))
	}
	if notEmpty, ok := grouped[ErrorNotEmpty]; ok {
		fmt.Fprintf(&b, "   ├─ Not empty: %d directories\n", len(notEmpty))
	}
	if invalid, ok := grouped[ErrorInvalidPath]; ok {
		fmt.Fprintf(&b, "   ├─ Invalid paths: %d\n", len(invalid))
	}
	if unknown, ok := grouped[ErrorUnknown]; ok {
		fmt.Fprintf(&b, "   └─ Other errors: %d\n", len(unknown))
	}

	return b.String()
}

// ArchiveCorruptError reports an archive that could not be identified or
// read to the end. The organizer discards such archives.
type ArchiveCorruptError struct {
	Path   string
	Format string
	Err    error
}

func (e *ArchiveCorruptError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("corrupt archive %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("corrupt %s archive %s: %v", e.Format, e.Path, e.Err)
}

func (e *ArchiveCorruptError) Unwrap() error {
	return e.Err
}
