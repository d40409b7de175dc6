package utils

import (
	rndm "math/rand"
	"strings"

	"github.com/google/uuid"
)

// --- Random String and ID Generators ---

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")
var digitRunes = []rune("0123456789")

// GenerateID creates a random alphanumeric string of length n.
func GenerateID(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rndm.Intn(len(letterRunes))]
	}
	return string(b)
}

// GenerateRandomDigitString creates a random numeric string of length n.
func GenerateRandomDigitString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = digitRunes[rndm.Intn(len(digitRunes))]
	}
	return string(b)
}

// NewUUID returns a dashless uuid, used for upload filenames.
func NewUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// --- Slug Generation ---

var viTranslit = map[rune]rune{}

func init() {
	groups := map[rune]string{
		'a': "áàảãạăắằẳẵặâấầẩẫậ",
		'e': "éèẻẽẹêếềểễệ",
		'i': "íìỉĩị",
		'o': "óòỏõọôốồổỗộơớờởỡợ",
		'u': "úùủũụưứừửữự",
		'y': "ýỳỷỹỵ",
		'd': "đ",
	}
	for base, accented := range groups {
		for _, r := range accented {
			viTranslit[r] = base
		}
	}
}

// Slugify lowercases, strips Vietnamese diacritics, and collapses everything
// else into single hyphens. "Áo Thun Đen" -> "ao-thun-den".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		if base, ok := viTranslit[r]; ok {
			r = base
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// UniqueSlug appends a short random suffix, used when a bare slug collides.
func UniqueSlug(name string) string {
	return Slugify(name) + "-" + strings.ToLower(GenerateID(6))
}
