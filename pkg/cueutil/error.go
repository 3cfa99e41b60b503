// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize bounds the size of documents DecodeMap accepts (1MB).
const DefaultMaxFileSize int64 = 1 << 20

// DecodeMap compiles schema, unifies the definition it names with data and
// decodes the result into a map. Fields may be left open; only values that
// are present have to be concrete.
func DecodeMap(schema, definition string, data []byte, filename string) (map[string]any, error) {
	if err := CheckFileSize(data, DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(schema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return nil, fmt.Errorf("internal error: schema has no %s definition", definition)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if err := userValue.Err(); err != nil {
		return nil, FormatError(err, filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, FormatError(err, filename)
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, filename)
	}
	return out, nil
}

// ValidationError is a CUE failure rewritten against the file it came from.
// It wraps the original error.
type ValidationError struct {
	// FilePath is the file being validated.
	FilePath string
	// Lines holds one "<path>: <message>" entry per underlying CUE error.
	Lines []string
	Err   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Lines) == 1 {
		return e.FilePath + ": " + e.Lines[0]
	}
	return e.FilePath + ": validation failed:\n  " + strings.Join(e.Lines, "\n  ")
}

// Unwrap returns the original CUE error.
func (e *ValidationError) Unwrap() error { return e.Err }

// FormatError rewrites a CUE error as "<file>: <path>: <message>", one line
// per underlying error. Paths are relative to the schema definition the
// document was unified with.
//
//	config.cue: run.timeout: conflicting values "soon" and =~"..."
//
// Errors that do not come from CUE are wrapped with the file prefix only.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var cueErr errors.Error
	if !errors.As(err, &cueErr) {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	cueErrors := errors.Errors(err)
	lines := make([]string, 0, len(cueErrors))
	for _, e := range cueErrors {
		pathStr := formatPath(stripDefinition(errors.Path(e)))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if msg == "" {
			msg = e.Error()
		}
		if pathStr == "" {
			lines = append(lines, msg)
			continue
		}
		lines = append(lines, pathStr+": "+msg)
	}
	return &ValidationError{FilePath: filePath, Lines: lines, Err: err}
}

// stripDefinition drops a leading "#Definition" element, which names the
// schema rather than a field of the document.
func stripDefinition(path []string) []string {
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		return path[1:]
	}
	return path
}

// formatPath joins CUE path elements with dots, rendering purely numeric
// elements as list indices: ["hooks", "0", "cmd"] becomes "hooks[0].cmd".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize reports an error when data exceeds maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
