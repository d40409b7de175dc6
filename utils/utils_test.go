package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Áo Thun Đen":          "ao-thun-den",
		"Quần Jeans Nữ":        "quan-jeans-nu",
		"  Giày  Sneaker  42 ": "giay-sneaker-42",
		"Điện thoại (mới!)":    "dien-thoai-moi",
		"ÁO KHOÁC":             "ao-khoac",
		"abc-123":              "abc-123",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestUniqueSlug(t *testing.T) {
	s := UniqueSlug("Áo Thun Đen")
	assert.True(t, strings.HasPrefix(s, "ao-thun-den-"), "got %q", s)
	assert.Len(t, s, len("ao-thun-den-")+6)
	assert.Equal(t, strings.ToLower(s), s)
}

func TestGenerateID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateID(12)
		assert.Len(t, id, 12)
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}
