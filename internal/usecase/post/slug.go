package post

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxSlugBase = 60

// NewSlug derives a readable slug from title with a random suffix that keeps it
// unique: "hello-world-1a2b3c4d".
func NewSlug(title string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Slugify(title) + "-" + suffix
}

// Slugify lowercases title, keeps letters and digits and joins the words with
// single dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}

	s := b.String()
	if s == "" {
		return "post"
	}
	if runes := []rune(s); len(runes) > maxSlugBase {
		s = strings.TrimRight(string(runes[:maxSlugBase]), "-")
	}
	return s
}
