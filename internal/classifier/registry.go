package classifier

// Registry maps each known extension to the files discovered for it, in
// discovery order. Only registered extensions can hold files.
type Registry struct {
	buckets map[string][]string
}

// NewRegistry creates a registry with an empty bucket per known extension
func NewRegistry() *Registry {
	r := &Registry{buckets: make(map[string][]string, len(extensionCategory))}
	for ext := range extensionCategory {
		r.buckets[ext] = nil
	}
	return r
}

// Add appends path to the bucket for ext. It returns false for extensions
// that are not registered; those are never added.
func (r *Registry) Add(ext, path string) bool {
	if _, ok := r.buckets[ext]; !ok {
		return false
	}
	r.buckets[ext] = append(r.buckets[ext], path)
	return true
}

// Files returns the bucket for ext
func (r *Registry) Files(ext string) []string {
	return r.buckets[ext]
}

// Len returns the number of files across all buckets
func (r *Registry) Len() int {
	n := 0
	for _, files := range r.buckets {
		n += len(files)
	}
	return n
}

// NonEmpty returns a copy of the buckets that hold at least one file
func (r *Registry) NonEmpty() map[string][]string {
	out := make(map[string][]string)
	for ext, files := range r.buckets {
		if len(files) == 0 {
			continue
		}
		cp := make([]string, len(files))
		copy(cp, files)
		out[ext] = cp
	}
	return out
}
