package content

import (
	"iter"
	"strings"
)

// Find resolves a slash-separated path relative to the root. Empty
// components and "." are ignored, so "", "." and "/" all resolve to the root
// itself. Find reports false when no entry exists at path, including when
// path descends through a file.
func Find(r *Root, path string) (Entry, bool) {
	var cur Dir = r
	var found Entry = r
	for _, name := range strings.Split(path, "/") {
		if name == "" || name == "." {
			continue
		}
		if cur == nil {
			return nil, false
		}
		child, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		found = child
		cur, _ = child.(Dir)
	}
	return found, true
}

// All returns an iterator over every folder and file below the root, paired
// with its slash-separated path. The order is pre-order in tree order: a
// folder is yielded before its children, and each child before its own
// descendants. The root itself is not yielded.
func All(r *Root) iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		walk(&r.children, "", yield)
	}
}

func walk(c *children, parent string, yield func(string, Entry) bool) bool {
	for _, e := range c.list {
		path := join(parent, e.Name())
		if !yield(path, e) {
			return false
		}
		if f, ok := e.(*Folder); ok {
			if !walk(&f.children, path, yield) {
				return false
			}
		}
	}
	return true
}

// Paths returns an iterator over the paths yielded by All.
func Paths(r *Root) iter.Seq[string] {
	return func(yield func(string) bool) {
		for path := range All(r) {
			if !yield(path) {
				return
			}
		}
	}
}

// Files returns the number of files in the tree and their total size.
func Files(r *Root) (count int, total uint64) {
	for _, e := range All(r) {
		if f, ok := e.(*File); ok {
			count++
			total += f.size
		}
	}
	return count, total
}
