package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrDestinationExists is returned under PolicyError when the destination is taken
var ErrDestinationExists = errors.New("destination already exists")

// Policy selects what happens when a destination name is already taken
type Policy string

const (
	PolicySuffix    Policy = "suffix"
	PolicyError     Policy = "error"
	PolicyOverwrite Policy = "overwrite"
)

// ParsePolicy validates a policy name; empty selects PolicySuffix
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySuffix:
		return PolicySuffix, nil
	case PolicyError:
		return PolicyError, nil
	case PolicyOverwrite:
		return PolicyOverwrite, nil
	}
	return "", fmt.Errorf("unknown collision policy %q (want suffix, error or overwrite)", s)
}

// CollisionResolver tracks destination paths claimed by source files within
// one run and checks the disk for pre-existing files. All methods are
// goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	policy   Policy
	owners   map[string]string // destination → source that claimed it
	counters map[string]int    // requested destination → next suffix
	exists   func(path string) bool
}

// NewCollisionResolver creates a resolver for the given policy
func NewCollisionResolver(policy Policy) *CollisionResolver {
	return &CollisionResolver{
		policy:   policy,
		owners:   make(map[string]string),
		counters: make(map[string]int),
		exists:   pathExists,
	}
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Policy returns the resolver's policy
func (cr *CollisionResolver) Policy() Policy {
	return cr.policy
}

// Resolve returns the final destination for source. A free destination (or
// one already owned by source) is returned as-is; a taken one is handled by
// the policy: suffix generates "stem_N.ext", error returns
// ErrDestinationExists, overwrite returns the destination unchanged.
func (cr *CollisionResolver) Resolve(source, destination string) (string, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.taken(source, destination) {
		cr.owners[destination] = source
		return destination, nil
	}

	switch cr.policy {
	case PolicyOverwrite:
		cr.owners[destination] = source
		return destination, nil
	case PolicyError:
		return "", fmt.Errorf("%s: %w", destination, ErrDestinationExists)
	}

	dir := filepath.Dir(destination)
	base := filepath.Base(destination)
	stem := StripExtension(base)
	ext := strings.TrimPrefix(base, stem)

	counter := cr.counters[destination]
	if counter == 0 {
		counter = 1
	}

	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		if !cr.taken(source, candidate) {
			cr.counters[destination] = counter + 1
			cr.owners[candidate] = source
			return candidate, nil
		}
		counter++
	}
}

// taken must be called with mu held.
func (cr *CollisionResolver) taken(source, destination string) bool {
	if owner, ok := cr.owners[destination]; ok {
		return owner != source
	}
	return cr.exists(destination)
}
