package diagfmt

import (
	"path/filepath"

	"schemelex/internal/source"
)

// autoPathLimit: in auto mode longer absolute paths are shortened to their basename.
const autoPathLimit = 40

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	// stdin и виртуальные файлы показываем под их именем
	if f.Flags&(source.FileVirtual|source.FileStreamed) != 0 {
		return f.Path
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := source.AbsolutePath(f.Path); err == nil {
			return abs
		}
	case PathModeRelative:
		if rel, err := source.RelativePath(f.Path, fs.BaseDir()); err == nil {
			return rel
		}
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		if len(f.Path) >= autoPathLimit && filepath.IsAbs(f.Path) {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}
