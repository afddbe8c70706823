package report

import (
	"fmt"
	"strings"
)

// Writer builds indented plain-text reports
type Writer struct {
	sb          strings.Builder
	indentLevel int
	indent      string
	prefix      string
	needsIndent bool
}

// NewWriter creates a writer that indents nested sections with indent
func NewWriter(indent string) *Writer {
	return &Writer{
		indent:      indent,
		needsIndent: true,
	}
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.indentLevel++
	w.prefix = strings.Repeat(w.indent, w.indentLevel)
}

// Dedent decreases the indentation level
func (w *Writer) Dedent() {
	if w.indentLevel > 0 {
		w.indentLevel--
		w.prefix = strings.Repeat(w.indent, w.indentLevel)
	}
}

// Write writes s without a trailing newline
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(w.prefix)
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

// WriteLine writes s followed by a newline
func (w *Writer) WriteLine(s string) {
	w.Write(s)
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// WriteLinef writes a formatted line
func (w *Writer) WriteLinef(format string, args ...interface{}) {
	w.WriteLine(fmt.Sprintf(format, args...))
}

// WriteField writes a "key: value" line. Empty values are skipped.
func (w *Writer) WriteField(key, value string) {
	if value == "" {
		return
	}
	w.WriteLinef("%s: %s", key, value)
}

// BlankLine adds an empty line unless the output already ends with one
func (w *Writer) BlankLine() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.sb.WriteString("\n")
		w.needsIndent = true
	}
}

// WriteSection writes title followed by content indented one level
func (w *Writer) WriteSection(title string, content func()) {
	w.WriteLine(title)
	w.Indent()
	content()
	w.Dedent()
}

// String returns the report
func (w *Writer) String() string {
	return w.sb.String()
}
