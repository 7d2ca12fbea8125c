package content

import (
	"fmt"
	"iter"
	"strings"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/sizing"
)

// Kind classifies an Entry.
type Kind uint8

const (
	// KindRoot is the unnamed top-level folder.
	KindRoot Kind = iota
	// KindFolder is a named folder.
	KindFolder
	// KindFile is a file with data in the archive.
	KindFile
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindFolder:
		return "folder"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Entry is a node of the content tree: *Root, *Folder, or *File.
type Entry interface {
	// Name is the entry's name within its parent; it is empty for the root.
	Name() string
	Kind() Kind
}

// Dir is an Entry with children: *Root or *Folder.
type Dir interface {
	Entry
	Len() int
	Child(name string) (Entry, bool)
	Children() iter.Seq[Entry]
}

// children holds a directory's entries in header order.
type children struct {
	list   []Entry
	byName map[string]int
}

// Len returns the number of direct children.
func (c *children) Len() int { return len(c.list) }

// Child returns the direct child called name.
func (c *children) Child(name string) (Entry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.list[i], true
}

// Children returns an iterator over direct children in header order.
func (c *children) Children() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range c.list {
			if !yield(e) {
				return
			}
		}
	}
}

func (c *children) add(e Entry) error {
	if c.byName == nil {
		c.byName = make(map[string]int)
	}
	if _, dup := c.byName[e.Name()]; dup {
		return fmt.Errorf("%w: duplicate name %q", asartype.ErrInvalidName, e.Name())
	}
	c.byName[e.Name()] = len(c.list)
	c.list = append(c.list, e)
	return nil
}

// Root is the unnamed top-level folder. There is exactly one per tree.
type Root struct {
	children
}

// NewRoot returns an empty root for building a tree.
func NewRoot() *Root { return &Root{} }

// Name returns "", since the root has no name.
func (*Root) Name() string { return "" }

// Kind returns KindRoot.
func (*Root) Kind() Kind { return KindRoot }

// AddFolder appends an empty folder called name.
func (r *Root) AddFolder(name string) (*Folder, error) {
	return addFolder(&r.children, name)
}

// AddFile appends a file.
func (r *Root) AddFile(f *File) error {
	return addFile(&r.children, f)
}

// Folder is a named directory within the tree.
type Folder struct {
	name string
	children
}

// Name returns the folder's name within its parent.
func (f *Folder) Name() string { return f.name }

// Kind returns KindFolder.
func (*Folder) Kind() Kind { return KindFolder }

// AddFolder appends an empty folder called name.
func (f *Folder) AddFolder(name string) (*Folder, error) {
	return addFolder(&f.children, name)
}

// AddFile appends a file.
func (f *Folder) AddFile(file *File) error {
	return addFile(&f.children, file)
}

func addFolder(c *children, name string) (*Folder, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	sub := &Folder{name: name}
	if err := c.add(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func addFile(c *children, f *File) error {
	if err := ValidateName(f.name); err != nil {
		return err
	}
	return c.add(f)
}

// File is a leaf. Its content occupies [start+Offset, start+Offset+Size) of
// the archive, where start is the data region address.
type File struct {
	name       string
	offset     uint64
	size       uint64
	executable bool
	integrity  *Integrity
}

// NewFile returns a file entry. It fails with ErrSizeTooLarge when size
// exceeds sizing.MaxSafeInteger.
func NewFile(name string, offset, size uint64, opts ...FileOption) (*File, error) {
	if size > sizing.MaxSafeInteger {
		return nil, asartype.ErrSizeTooLarge
	}
	f := &File{name: name, offset: offset, size: size}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FileOption sets optional file metadata.
type FileOption func(*File)

// WithExecutable marks the file as executable.
func WithExecutable(executable bool) FileOption {
	return func(f *File) { f.executable = executable }
}

// WithIntegrity attaches integrity metadata.
func WithIntegrity(in *Integrity) FileOption {
	return func(f *File) { f.integrity = in }
}

// Name returns the file's name within its parent.
func (f *File) Name() string { return f.name }

// Kind returns KindFile.
func (*File) Kind() Kind { return KindFile }

// Offset is the file's byte offset relative to the data region.
func (f *File) Offset() uint64 { return f.offset }

// Size is the file's length in bytes.
func (f *File) Size() uint64 { return f.size }

// Executable reports whether the file carries the executable flag.
func (f *File) Executable() bool { return f.executable }

// Integrity returns the file's integrity metadata, or nil if it has none.
func (f *File) Integrity() *Integrity { return f.integrity }

// ValidateName rejects names that cannot be a single path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", asartype.ErrInvalidName, name)
	}
	return nil
}

var (
	_ Dir   = (*Root)(nil)
	_ Dir   = (*Folder)(nil)
	_ Entry = (*File)(nil)
)
