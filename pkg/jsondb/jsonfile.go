package jsondb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf16"
	"unicode/utf8"
)

/* JSONFile is a simple atomic-write single-file-database
 * which stores a Go object as indented JSON.
 *
 * Usage:
 *  jf := NewJSONFile[YourTypeHere]("yourDB.json", 0600)
 *  err := jf.Save(YourObj)
 *  obj, err := jf.Load()
 *
 * Files are pure ASCII: other runes are written as \u escapes and
 * HTML characters are left alone.
 *
 * Load on a missing file returns an error matching fs.ErrNotExist.
 */
type JSONFile[T any] struct {
	filename string
	perm     os.FileMode
}

func NewJSONFile[T any](filename string, perm os.FileMode) *JSONFile[T] {
	return &JSONFile[T]{filename: filename, perm: perm}
}

func (jf *JSONFile[T]) Path() string {
	return jf.filename
}

func (jf *JSONFile[T]) Save(obj T) error {
	data, err := encode(obj)
	if err != nil {
		return fmt.Errorf("cannot encode object: %w", err)
	}

	// same directory so the rename cannot cross filesystems
	tempFile, err := os.CreateTemp(filepath.Dir(jf.filename), ".tmp_json_file")
	if err != nil {
		return fmt.Errorf("cannot create temporary file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("cannot write temporary file: %w", err)
	}

	if err := tempFile.Chmod(jf.perm); err != nil {
		tempFile.Close()
		return fmt.Errorf("cannot chmod temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("cannot close temporary file: %w", err)
	}

	if err := os.Rename(tempFile.Name(), jf.filename); err != nil {
		return fmt.Errorf("cannot rename temporary file to %q: %w", jf.filename, err)
	}

	return nil
}

func (jf *JSONFile[T]) Load() (T, error) {
	data, err := os.ReadFile(jf.filename)
	if err != nil {
		return *new(T), fmt.Errorf("cannot open file %q: %w", jf.filename, err)
	}

	if len(data) == 0 {
		return *new(T), fmt.Errorf("file %q is empty", jf.filename)
	}

	var obj T
	if err := json.Unmarshal(data, &obj); err != nil {
		return *new(T), fmt.Errorf("cannot decode object from file %q: %w", jf.filename, err)
	}

	return obj, nil
}

// Remove deletes the file, reporting whether there was one.
func (jf *JSONFile[T]) Remove() (bool, error) {
	err := os.Remove(jf.filename)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot remove %q: %w", jf.filename, err)
	}
	return true, nil
}

func encode(obj any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(obj); err != nil {
		return nil, err
	}
	return escapeNonASCII(buf.Bytes()), nil
}

// escapeNonASCII rewrites every non-ASCII rune as \uXXXX, using a
// surrogate pair outside the BMP. Such runes only occur inside JSON
// strings, where the escape decodes to the same text.
func escapeNonASCII(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, r := range string(data) {
		switch {
		case r < utf8.RuneSelf:
			out = append(out, byte(r))
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			out = fmt.Appendf(out, `\u%04x\u%04x`, r1, r2)
		default:
			out = fmt.Appendf(out, `\u%04x`, r)
		}
	}
	return out
}
