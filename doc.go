// Package asar reads and writes single-file archives that package a
// directory tree: a small JSON header describing the tree, followed by the
// concatenated bytes of every file.
//
// An archive file is laid out as:
//   - A 16-byte prefix of four little-endian uint32 fields
//   - The JSON header text: {"files": {...}}, folders nesting further
//     "files" objects and files recording a "size" and a string "offset"
//   - The data region: file contents back to back, in offset order
//
// File offsets are relative to the start of the data region, reported by
// [Archive.Start].
//
// # Quick Start
//
// Pack a directory:
//
//	dir, err := asar.OpenDir(ctx, "./app")
//	if err != nil {
//	    return err
//	}
//	defer dir.Close()
//	err = dir.Pack(ctx, "app.asar")
//
// Read from an archive:
//
//	a, err := asar.OpenFile("app.asar")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	for path := range a.Paths() {
//	    fmt.Println(path)
//	}
//	data, ok := a.ReadFile("package.json")
//
// # Ordering
//
// Decoded archives list entries in header order. Packing walks a directory
// sorted by name unless [WithOrder] selects [OrderNative]; the choice fixes
// both header order and file offsets.
//
// # Integrity
//
// Opening a directory with [WithIntegrity] records a SHA-256 hash of every
// file, plus per-block hashes, in the header. Extract and ReadFile verify
// the hash when present.
package asar
