package worksheet

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxFileBytes bounds a single text upload.
const maxFileBytes = 8 << 20

// ErrFileTooLarge is returned for text content over the upload bound.
var ErrFileTooLarge = errors.New("text file too large")

// ReadFile builds a FileData from an upload. Content whose media type is
// text/plain is read; parameters such as charset and letter case are
// ignored. Any other media type is recorded by name only.
func ReadFile(name, contentType string, r io.Reader, cat Category) (FileData, error) {
	f := FileData{
		ID:       uuid.NewString(),
		Name:     name,
		Category: cat,
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "text/plain" {
		f.Content = placeholder(name)
		return f, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, maxFileBytes+1))
	if err != nil {
		return FileData{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxFileBytes {
		return FileData{}, fmt.Errorf("%s: %w (limit %d bytes)", name, ErrFileTooLarge, maxFileBytes)
	}
	f.Content = string(data)
	return f, nil
}

// ReadPath reads a local file, inferring the media type from its extension.
func ReadPath(path string, cat Category) (FileData, error) {
	fh, err := os.Open(path)
	if err != nil {
		return FileData{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	ct := mime.TypeByExtension(ext)
	if ct == "" && strings.EqualFold(ext, ".txt") {
		ct = "text/plain"
	}
	return ReadFile(name, ct, fh, cat)
}

func placeholder(name string) string {
	return fmt.Sprintf("[File: %s]", name)
}
