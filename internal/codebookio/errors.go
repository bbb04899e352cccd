// Package codebookio reads and writes the bit-exact on-disk codebook
// format: a printable-ASCII line format where every quantizer map and
// mixing ratio is encoded as its raw byte plus 33, so the whole file
// stays inspectable in a text editor (qvz codebook.c: write_codebook /
// read_codebook).
package codebookio

import "github.com/qvzgo/qvcodebook/internal/qverr"

// ErrMalformedCodebook is returned by Read when the file's structure
// doesn't parse: wrong line lengths, a line missing entirely, or a
// byte below the printable-ASCII offset.
var ErrMalformedCodebook = qverr.New(qverr.MalformedCodebook, "malformed codebook file")
