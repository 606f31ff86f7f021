// Package encoding normalizes the text encoding of surface files before
// they are parsed.
package encoding

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewUTF8Reader returns a reader that yields UTF-8 text from r.
// A leading UTF-8 byte order mark is dropped and UTF-16 input with a byte
// order mark is transcoded. Input without a BOM is passed through as UTF-8.
func NewUTF8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
