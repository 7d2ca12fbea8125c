package content

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Encode serializes the tree as compact header JSON. Children are written
// in tree order; file offsets are written as decimal strings and sizes as
// JSON numbers.
func Encode(r *Root) ([]byte, error) {
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	writeDir(stream, &r.children)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func writeDir(stream *jsoniter.Stream, c *children) {
	stream.WriteObjectStart()
	stream.WriteObjectField("files")
	stream.WriteObjectStart()
	for i, e := range c.list {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(e.Name())
		switch e := e.(type) {
		case *Folder:
			writeDir(stream, &e.children)
		case *File:
			writeFile(stream, e)
		}
	}
	stream.WriteObjectEnd()
	stream.WriteObjectEnd()
}

func writeFile(stream *jsoniter.Stream, f *File) {
	stream.WriteObjectStart()
	stream.WriteObjectField("size")
	stream.WriteUint64(f.size)
	stream.WriteMore()
	stream.WriteObjectField("offset")
	stream.WriteString(strconv.FormatUint(f.offset, 10))
	if f.executable {
		stream.WriteMore()
		stream.WriteObjectField("executable")
		stream.WriteBool(true)
	}
	if in := f.integrity; in != nil {
		stream.WriteMore()
		stream.WriteObjectField("integrity")
		stream.WriteObjectStart()
		stream.WriteObjectField("algorithm")
		stream.WriteString(IntegrityAlgorithm)
		stream.WriteMore()
		stream.WriteObjectField("hash")
		stream.WriteString(in.Hash.Encoded())
		stream.WriteMore()
		stream.WriteObjectField("blockSize")
		stream.WriteUint32(in.BlockSize)
		stream.WriteMore()
		stream.WriteObjectField("blocks")
		stream.WriteArrayStart()
		for i, b := range in.Blocks {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteString(b.Encoded())
		}
		stream.WriteArrayEnd()
		stream.WriteObjectEnd()
	}
	stream.WriteObjectEnd()
}
