package classifier

import (
	"path/filepath"
	"strings"
)

// Category is a top-level output directory under the organized root
type Category string

const (
	Images       Category = "images"
	Audio        Category = "audio"
	Video        Category = "video"
	Documents    Category = "documents"
	Archives     Category = "archives"
	Unclassified Category = "not_defined"
)

// MediaCategories lists the relocated categories in processing order
var MediaCategories = []Category{Images, Audio, Video, Documents}

// ReservedRoots are the directory names the scanner never descends into
var ReservedRoots = map[string]bool{
	string(Images):       true,
	string(Audio):        true,
	string(Video):        true,
	string(Documents):    true,
	string(Archives):     true,
	string(Unclassified): true,
}

// categoryExtensions keeps the subtype order used for output and processing.
var categoryExtensions = map[Category][]string{
	Images:    {"JPEG", "JPG", "PNG", "SVG"},
	Audio:     {"MP3", "OGG", "WAV", "AMR"},
	Video:     {"MP4", "AVI", "MOV", "MKV"},
	Documents: {"DOC", "DOCX", "TXT", "PDF", "XLSX", "PPTX", "PY"},
	Archives:  {"ZIP", "GZ", "TAR"},
}

var extensionCategory = func() map[string]Category {
	m := make(map[string]Category)
	for cat, exts := range categoryExtensions {
		for _, ext := range exts {
			m[ext] = cat
		}
	}
	return m
}()

// Extensions returns the subtypes registered for a category, in order
func Extensions(cat Category) []string {
	exts := categoryExtensions[cat]
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// KnownExtensions returns every registered extension, grouped by category order
func KnownExtensions() []string {
	var out []string
	for _, cat := range append(append([]Category{}, MediaCategories...), Archives) {
		out = append(out, categoryExtensions[cat]...)
	}
	return out
}

// CategoryOf returns the category an upper-case extension belongs to
func CategoryOf(ext string) (Category, bool) {
	cat, ok := extensionCategory[ext]
	return cat, ok
}

// IsReservedRoot reports whether a directory name is one of the output roots
func IsReservedRoot(name string) bool {
	return ReservedRoots[name]
}

// Extension returns the upper-cased text after the last period of a file name.
// A period in first or last position does not start an extension, so ".bashrc"
// and "notes." have none.
func Extension(name string) string {
	name = filepath.Base(name)
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToUpper(name[i+1:])
}

// Classify returns the extension of filename and whether it is registered
func Classify(filename string) (string, bool) {
	ext := Extension(filename)
	if ext == "" {
		return "", false
	}
	_, known := CategoryOf(ext)
	return ext, known
}

// Destination returns the directory a classified file is placed in, relative
// to the organized root. Unknown extensions map to the flat not_defined root.
func Destination(ext string) string {
	cat, ok := CategoryOf(ext)
	if !ok {
		return string(Unclassified)
	}
	return filepath.Join(string(cat), ext)
}
