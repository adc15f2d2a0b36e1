// Package source opens CSV files for loading.
//
// It confines user-supplied paths to a data root, enforces a size limit and
// builds the decode chain a file is read through: byte counting, BOM removal
// and charset decoding (golang.org/x/text), then optional UTF-8 sanitizing.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvsearch/internal/csv"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyPath is returned when no file path was supplied.
	ErrEmptyPath = errors.New("no file provided")

	// ErrOutsideRoot is returned for paths that escape the data root.
	ErrOutsideRoot = errors.New("invalid file path: outside data directory")

	// ErrFileTooLarge is returned when a file exceeds Options.MaxSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnknownEncoding is returned for an unsupported Options.Encoding.
	ErrUnknownEncoding = errors.New("encoding error: unknown character encoding")
)

// Options control how a file is opened and decoded.
type Options struct {
	// Encoding names the source charset ("windows-1252", "latin1", "cp850").
	// Empty means the bytes are passed through, apart from BOM removal.
	Encoding string

	// Sanitize replaces invalid UTF-8 bytes with '?' after decoding.
	Sanitize bool

	// MaxSize is the largest accepted file in bytes; 0 disables the check.
	MaxSize int64
}

// dosCodePages covers the DOS code pages that the WHATWG index used by
// htmlindex does not name.
var dosCodePages = map[string]*charmap.Charmap{
	"cp437":  charmap.CodePage437,
	"ibm437": charmap.CodePage437,
	"cp850":  charmap.CodePage850,
	"ibm850": charmap.CodePage850,
	"cp852":  charmap.CodePage852,
	"cp865":  charmap.CodePage865,
	"cp866":  charmap.CodePage866,
}

// Resolve joins name onto root and rejects anything that would leave root.
func Resolve(root, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyPath
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}
	full := filepath.Join(absRoot, filepath.Clean(name))

	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return full, nil
}

// ValidateEncoding reports whether name is a supported encoding.
func ValidateEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, nil
	}
	if cm, ok := dosCodePages[key]; ok {
		return cm, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// File is an open, decoding source. Close releases the underlying file.
type File struct {
	path    string
	file    *os.File
	counter *CountingReader
	reader  io.Reader
}

// Open opens path and wraps it for decoding according to opts.
//
// Failures to open or stat the file, and files over the size limit, are
// reported as *csv.SourceError.
func Open(path string, opts Options) (*File, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &csv.SourceError{Op: "open", Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &csv.SourceError{Op: "open", Path: path, Err: err}
	}
	if info.IsDir() {
		f.Close()
		return nil, &csv.SourceError{Op: "open", Path: path, Err: fmt.Errorf("%s is a directory", filepath.Base(path))}
	}
	if opts.MaxSize > 0 && info.Size() > opts.MaxSize {
		f.Close()
		return nil, &csv.SourceError{
			Op:   "open",
			Path: path,
			Err:  fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, info.Size(), opts.MaxSize),
		}
	}

	counter := NewCountingReader(f, info.Size())
	return &File{
		path:    path,
		file:    f,
		counter: counter,
		reader:  decodeChain(counter, enc, opts.Sanitize),
	}, nil
}

// decodeChain builds the reader stack. Order matters: the BOM has to be seen
// before any charset decoding, and sanitizing only makes sense on the
// decoded text.
func decodeChain(r io.Reader, enc encoding.Encoding, sanitize bool) io.Reader {
	var fallback transform.Transformer = transform.Nop
	if enc != nil {
		fallback = enc.NewDecoder()
	}
	out := transform.NewReader(r, unicode.BOMOverride(fallback))
	if sanitize {
		return NewUTF8Sanitizer(out)
	}
	return out
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	return f.reader.Read(p)
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.file.Close()
}

// Name returns the path the file was opened from.
func (f *File) Name() string {
	return f.path
}

// BytesRead returns the number of raw bytes consumed from the file.
func (f *File) BytesRead() int64 {
	return f.counter.BytesRead()
}

// Progress returns the read progress as a percentage.
func (f *File) Progress() int {
	return f.counter.Progress()
}
