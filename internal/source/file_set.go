package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// LoadOptions controls normalisation applied by FileSet.Load.
type LoadOptions struct {
	// NormalizeNFC rewrites content to Unicode normalization form C.
	NormalizeNFC bool
}

// FileSet owns every input of one run. FileIDs are indexes into it and stay
// valid for the life of the set; adding the same path twice yields two files.
// A FileSet is not safe for concurrent Add.
type FileSet struct {
	files   []File
	baseDir string // базовая директория для относительных путей
}

func NewFileSet() *FileSet {
	return &FileSet{}
}

// NewFileSetWithBase создаёт FileSet, пути которого показываются относительно baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{baseDir: baseDir}
}

// BaseDir returns the directory relative paths are shown against; the working
// directory when none was set.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Add stores already normalized content, indexes its lines and hashes it.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("too many files in set: %w", err))
	}
	id := FileID(n)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	return id
}

// Load reads path, strips a UTF-8 BOM, folds CRLF to LF, optionally applies
// NFC, and adds the result. The flags record which rewrites happened.
func (fileSet *FileSet) Load(path string, opts LoadOptions) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if uint64(len(content)) > MaxInputSize {
		return 0, ErrInputTooLarge
	}

	var flags FileFlags
	var changed bool
	if content, changed = removeBOM(content); changed {
		flags |= FileHadBOM
	}
	if content, changed = normalizeCRLF(content); changed {
		flags |= FileNormalizedCRLF
	}
	if opts.NormalizeNFC && !norm.NFC.IsNormal(content) {
		content = norm.NFC.Bytes(content)
		flags |= FileNormalizedNFC
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content (tests, fuzzing) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// AddStream registers an input read incrementally; its content is not retained,
// so diagnostics for it carry positions but no source snippet.
func (fileSet *FileSet) AddStream(name string) FileID {
	return fileSet.Add(name, nil, FileStreamed)
}

// Get returns nil for an unknown id.
func (fileSet *FileSet) Get(id FileID) *File {
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// Line возвращает строку n (с 1) без перевода строки.
// Для несуществующей строки или файла без содержимого — пустая строка.
func (f *File) Line(n uint32) string {
	if f == nil || n == 0 || len(f.Content) == 0 {
		return ""
	}
	start := 0
	if n > 1 {
		if int(n-2) >= len(f.LineIdx) {
			return ""
		}
		start = int(f.LineIdx[n-2]) + 1
	}
	end := len(f.Content)
	if int(n-1) < len(f.LineIdx) {
		end = int(f.LineIdx[n-1])
	}
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}
