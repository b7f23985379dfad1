// Package tree renders indented listings used for folder trees and debug
// dumps.
package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultIndent is used when writer is created with empty indent.
const DefaultIndent = "  "

type Writer struct {
	sb     *strings.Builder
	indent string
}

func NewWriter(indent string) *Writer {
	if len(indent) == 0 {
		indent = DefaultIndent
	}
	return &Writer{sb: &strings.Builder{}, indent: indent}
}

func (w *Writer) String() string {
	return w.sb.String()
}

// Len returns number of bytes written so far.
func (w *Writer) Len() int {
	return w.sb.Len()
}

func (w *Writer) Line(depth int, format string, args ...any) {
	w.pad(depth)
	fmt.Fprintf(w.sb, format, args...)
	w.sb.WriteByte('\n')
}

// Value writes "label: value" with value quoted, empty values are left as is.
func (w *Writer) Value(depth int, label, value string) {
	w.pad(depth)
	w.sb.WriteString(label)
	w.sb.WriteString(": ")
	if len(value) > 0 {
		w.sb.WriteString(strconv.Quote(value))
	}
	w.sb.WriteByte('\n')
}

func (w *Writer) pad(depth int) {
	for range max(depth, 0) {
		w.sb.WriteString(w.indent)
	}
}
