package content

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/sizing"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Parse builds a tree from header JSON. The top-level value must be an
// object with a "files" object; every descendant is classified and
// validated before Parse returns.
//
// Children keep the order in which they appear in the header.
func Parse(data []byte) (*Root, error) {
	if !api.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", asartype.ErrHeader)
	}

	iter := api.BorrowIterator(data)
	defer api.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("%w: header is not a JSON object", asartype.ErrHeader)
	}
	var files []byte
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		if key == "files" && it.WhatIsNext() == jsoniter.ObjectValue {
			files = it.SkipAndReturnBytes()
			return true
		}
		it.Skip()
		return true
	})
	if iter.Error != nil {
		return nil, malformed("", iter.Error)
	}
	if files == nil {
		return nil, &asartype.HeaderError{Err: asartype.ErrMissingFiles}
	}

	root := &Root{}
	if err := parseChildren(&root.children, "", files); err != nil {
		return nil, err
	}
	return root, nil
}

// descriptor is the raw shape of one child entry.
type descriptor struct {
	size       string
	hasSize    bool
	offset     string
	hasOffset  bool
	files      []byte
	executable bool
	integrity  []byte
}

func parseChildren(c *children, parent string, raw []byte) error {
	iter := api.BorrowIterator(raw)
	defer api.ReturnIterator(iter)

	var perr error
	iter.ReadMapCB(func(it *jsoniter.Iterator, name string) bool {
		path := join(parent, name)
		if err := ValidateName(name); err != nil {
			perr = &asartype.HeaderError{Entity: path, Err: err}
			return false
		}
		e, err := classify(name, path, it)
		if err != nil {
			perr = err
			return false
		}
		if err := c.add(e); err != nil {
			perr = &asartype.HeaderError{Entity: path, Err: err}
			return false
		}
		return true
	})
	if perr != nil {
		return perr
	}
	if iter.Error != nil {
		return malformed(parent, iter.Error)
	}
	return nil
}

// classify reads one descriptor and builds the entry it describes. A
// descriptor is a File if and only if it has a numeric "size" and a string
// "offset"; otherwise it must have a "files" object and is a Folder.
func classify(name, path string, it *jsoniter.Iterator) (Entry, error) {
	if it.WhatIsNext() != jsoniter.ObjectValue {
		it.Skip()
		return nil, &asartype.HeaderError{Entity: path, Err: asartype.ErrMissingFiles}
	}

	var d descriptor
	it.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		next := it.WhatIsNext()
		switch {
		case key == "size" && next == jsoniter.NumberValue:
			d.size, d.hasSize = string(it.ReadNumber()), true
		case key == "offset" && next == jsoniter.StringValue:
			d.offset, d.hasOffset = it.ReadString(), true
		case key == "files" && next == jsoniter.ObjectValue:
			d.files = it.SkipAndReturnBytes()
		case key == "executable" && next == jsoniter.BoolValue:
			d.executable = it.ReadBool()
		case key == "integrity":
			d.integrity = it.SkipAndReturnBytes()
		default:
			it.Skip()
		}
		return true
	})
	if it.Error != nil {
		return nil, malformed(path, it.Error)
	}

	switch {
	case d.hasSize && d.hasOffset:
		return parseFile(name, path, &d)
	case d.files != nil:
		folder := &Folder{name: name}
		if err := parseChildren(&folder.children, path, d.files); err != nil {
			return nil, err
		}
		return folder, nil
	default:
		return nil, &asartype.HeaderError{Entity: path, Err: asartype.ErrMissingFiles}
	}
}

func parseFile(name, path string, d *descriptor) (*File, error) {
	size, err := strconv.ParseUint(d.size, 10, 64)
	if err != nil {
		return nil, &asartype.HeaderError{Entity: path, Err: asartype.ErrInvalidSize}
	}
	if size > sizing.MaxSafeInteger {
		return nil, &asartype.HeaderError{Entity: path, Err: asartype.ErrSizeTooLarge}
	}
	offset, err := strconv.ParseUint(d.offset, 10, 64)
	if err != nil {
		return nil, &asartype.HeaderError{Entity: path, Err: asartype.ErrInvalidOffset}
	}

	f := &File{name: name, offset: offset, size: size, executable: d.executable}
	if d.integrity != nil {
		if f.integrity, err = parseIntegrity(d.integrity); err != nil {
			return nil, &asartype.HeaderError{Entity: path, Err: err}
		}
	}
	return f, nil
}

func parseIntegrity(raw []byte) (*Integrity, error) {
	iter := api.BorrowIterator(raw)
	defer api.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("%w: not an object", asartype.ErrInvalidIntegrity)
	}

	var (
		in        Integrity
		algorithm string
		hasHash   bool
		hasBlocks bool
		perr      error
	)
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		next := it.WhatIsNext()
		switch {
		case key == "algorithm" && next == jsoniter.StringValue:
			algorithm = it.ReadString()
		case key == "hash" && next == jsoniter.StringValue:
			in.Hash, perr = parseDigest(it.ReadString())
			hasHash = true
		case key == "blockSize" && next == jsoniter.NumberValue:
			n, err := strconv.ParseUint(string(it.ReadNumber()), 10, 32)
			if err != nil || n == 0 {
				perr = fmt.Errorf("%w: bad blockSize", asartype.ErrInvalidIntegrity)
			}
			in.BlockSize = uint32(n)
		case key == "blocks" && next == jsoniter.ArrayValue:
			hasBlocks = true
			it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
				if it.WhatIsNext() != jsoniter.StringValue {
					perr = fmt.Errorf("%w: block hash is not a string", asartype.ErrInvalidIntegrity)
					return false
				}
				var d digest.Digest
				if d, perr = parseDigest(it.ReadString()); perr != nil {
					return false
				}
				in.Blocks = append(in.Blocks, d)
				return true
			})
		default:
			it.Skip()
		}
		return perr == nil
	})
	if perr != nil {
		return nil, perr
	}
	if iter.Error != nil {
		return nil, fmt.Errorf("%w: %v", asartype.ErrInvalidIntegrity, iter.Error)
	}
	if algorithm != IntegrityAlgorithm {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", asartype.ErrInvalidIntegrity, algorithm)
	}
	if !hasHash || !hasBlocks || in.BlockSize == 0 {
		return nil, fmt.Errorf("%w: missing hash, blockSize or blocks", asartype.ErrInvalidIntegrity)
	}
	return &in, nil
}

func parseDigest(hex string) (digest.Digest, error) {
	if err := digest.SHA256.Validate(hex); err != nil {
		return "", fmt.Errorf("%w: %v", asartype.ErrInvalidIntegrity, err)
	}
	return digest.NewDigestFromEncoded(digest.SHA256, hex), nil
}

func malformed(entity string, err error) error {
	return &asartype.HeaderError{
		Entity: entity,
		Err:    fmt.Errorf("%w: malformed JSON: %v", asartype.ErrHeader, err),
	}
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
