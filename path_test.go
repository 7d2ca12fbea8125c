package asar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"leading slash", "/etc/nginx", "etc/nginx"},
		{"trailing slash", "etc/nginx/", "etc/nginx"},
		{"empty string", "", ""},
		{"root slash", "/", ""},
		{"dot", ".", ""},
		{"simple", "foo", "foo"},
		{"nested path", "/foo/bar/baz", "foo/bar/baz"},
		// Multiple slashes
		{"only slashes", "///", ""},
		{"internal double slashes", "etc//nginx", "etc/nginx"},
		{"mixed slashes everywhere", "//etc//nginx//", "etc/nginx"},
		// Dot elements are dropped, dotdot is kept so lookups fail
		{"dot in middle", "a/./b", "a/b"},
		{"leading dot", "./a", "a"},
		{"dotdot in middle", "a/../b", "a/../b"},
		{"dotdot only", "..", ".."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePath(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}
