// Package content implements the archive's content tree: the typed
// Root/Folder/File model decoded from the JSON header, the JSON encoding used
// when packing, and path resolution over the tree.
//
// The header is parsed eagerly. Every descriptor is classified and validated
// when the tree is built, so a tree that exists is well formed. Trees are
// immutable once built by Parse; the builder methods on Root and Folder are
// only used while packing.
package content
