package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain ascii", "report_2024.pdf", "report_2024.pdf"},
		{"spaces", "my photo.jpg", "my_photo.jpg"},
		{"punctuation", "a-b(c)!.txt", "a_b_c__.txt"},
		{"lowercase cyrillic", "привіт.txt", "pryvit.txt"},
		{"uppercase cyrillic", "Привіт.txt", "Pryvit.txt"},
		{"multi letter", "Щука", "Shchuka"},
		{"soft sign removed", "сіль", "sil"},
		{"upper soft sign removed", "ЬЯ", "Ia"},
		{"ye", "Європа", "Evropa"},
		{"yi and ge", "їґ", "yih"},
		{"kh ts ch sh", "хцчш", "khtschsh"},
		{"non table unicode", "café.doc", "caf_.doc"},
		{"emoji", "😀.png", "_.png"},
		{"path separator", "a/b", "a_b"},
		{"dots kept", "..hidden..", "..hidden.."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", "abc", "Привіт світ.docx", "a b c", "Ж/З\\И", "日本語.txt",
		"ЄЇҐ єїґ", "mixed Кирилиця and latin 123.zip", "\t\n", "ьЬ",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeOutputAlphabet(t *testing.T) {
	out := Normalize("Юлія — «фото» №5 (копія).JPG")
	for _, r := range out {
		assert.True(t, isSafe(r), "unexpected rune %q in %q", r, out)
	}
}

func TestTransliterationTable(t *testing.T) {
	assert.Len(t, transliteration, 66)
	assert.Equal(t, "Shch", transliteration['Щ'])
	assert.Equal(t, "", transliteration['Ь'])
	assert.Equal(t, "e", transliteration['є'])
}

func TestStripExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"archive.zip", "archive"},
		{"backup.tar.gz", "backup.tar"},
		{"noext", "noext"},
		{".hidden", ".hidden"},
		{"trailing.", "trailing."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripExtension(tt.in))
		})
	}
}
