package gen

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

const indent = "    "

// Builder assembles C++ source line by line. Blocks opened with Open must be
// closed with Close; Bytes fails on any unbalanced block so that a broken
// artifact is never written.
type Builder struct {
	buf    bytes.Buffer
	frames []bool // per open block: whether its body is indented
	depth  int
	err    error
}

// Line writes one line at the current indentation.
func (b *Builder) Line(s string) *Builder {
	if s == "" {
		b.buf.WriteByte('\n')
		return b
	}
	b.buf.WriteString(strings.Repeat(indent, b.depth))
	b.buf.WriteString(s)
	b.buf.WriteByte('\n')
	return b
}

// Linef is Line with formatting.
func (b *Builder) Linef(format string, args ...any) *Builder {
	return b.Line(fmt.Sprintf(format, args...))
}

// Blank writes an empty line.
func (b *Builder) Blank() *Builder {
	return b.Line("")
}

// Open writes an opening brace and indents the block body.
func (b *Builder) Open() *Builder {
	b.Line("{")
	b.frames = append(b.frames, true)
	b.depth++
	return b
}

// OpenFlat writes an opening brace without indenting the block body, as for
// namespaces.
func (b *Builder) OpenFlat() *Builder {
	b.Line("{")
	b.frames = append(b.frames, false)
	return b
}

// Close ends the innermost block, writing "}" followed by suffix.
func (b *Builder) Close(suffix string) *Builder {
	if len(b.frames) == 0 {
		if b.err == nil {
			b.err = errors.New("unbalanced block: close without open")
		}
		return b
	}
	if b.frames[len(b.frames)-1] {
		b.depth--
	}
	b.frames = b.frames[:len(b.frames)-1]
	return b.Line("}" + suffix)
}

// Write appends pre-rendered text verbatim.
func (b *Builder) Write(s string) *Builder {
	b.buf.WriteString(s)
	return b
}

// Bytes returns the assembled source or an error if a block is left open.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if n := len(b.frames); n > 0 {
		return nil, fmt.Errorf("unbalanced block: %d left open", n)
	}
	return b.buf.Bytes(), nil
}

// String returns the assembled source so far.
func (b *Builder) String() string {
	return b.buf.String()
}
