package asar

import "github.com/meigma/asar/internal/content"

// Tree node types.
type (
	// Entry is a node of the content tree: *Root, *Folder, or *File.
	Entry = content.Entry

	// Dir is an Entry with children: *Root or *Folder.
	Dir = content.Dir

	// Root is the unnamed top-level folder of an archive.
	Root = content.Root

	// Folder is a named directory within the archive.
	Folder = content.Folder

	// File is a file within the archive.
	File = content.File

	// Kind classifies an Entry.
	Kind = content.Kind

	// Integrity is the optional hash metadata recorded for a file.
	Integrity = content.Integrity
)

// Entry kinds.
const (
	KindRoot   = content.KindRoot
	KindFolder = content.KindFolder
	KindFile   = content.KindFile
)
