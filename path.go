package asar

import "strings"

// NormalizePath converts a user-provided path to the form used for archive
// lookups.
//
// It performs the following transformations:
//   - Strips leading and trailing slashes: "/etc/nginx/" → "etc/nginx"
//   - Collapses consecutive slashes: "etc//nginx" → "etc/nginx"
//   - Drops "." elements: "./etc/./nginx" → "etc/nginx"
//   - Converts the root to the empty string: "/" → ""
//
// ".." elements are preserved; no entry can be named "..", so lookups
// containing them fail.
func NormalizePath(p string) string {
	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}
