package naming

import (
	"strings"
	"unicode"
)

const (
	cyrillicLetters = "абвгдеєжзіийклмнопрстуфхцчшщьюяїґ"
)

var latinReplacements = []string{
	"a", "b", "v", "h", "d", "e", "e", "j", "z", "i", "y", "j", "k", "l", "m", "n", "o",
	"p", "r", "s", "t", "u", "f", "kh", "ts", "ch", "sh", "shch", "", "iy", "ia", "yi", "h",
}

// transliteration is built once and never modified.
var transliteration = buildTransliteration()

func buildTransliteration() map[rune]string {
	letters := []rune(cyrillicLetters)
	if len(letters) != len(latinReplacements) {
		panic("naming: transliteration table size mismatch")
	}

	table := make(map[rune]string, len(letters)*2)
	for i, r := range letters {
		latin := latinReplacements[i]
		table[r] = latin
		table[unicode.ToUpper(r)] = capitalize(latin)
	}
	return table
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Normalize maps name to a filesystem-safe ASCII form
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		if latin, ok := transliteration[r]; ok {
			b.WriteString(latin)
			continue
		}
		if isSafe(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.':
		return true
	}
	return false
}

// StripExtension removes the final extension from name, using the same rule
// as classification: a period in first or last position starts no extension.
func StripExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return name
	}
	return name[:i]
}
