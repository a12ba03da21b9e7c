package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
)

var sourceExts = map[string]bool{".scm": true, ".ss": true, ".lisp": true}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	addSyntaxSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все исходники
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !sourceExts[filepath.Ext(path)] {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func addSyntaxSeeds(f *testing.F) {
	for _, s := range []string{
		"",
		"(",
		")",
		"; comment only",
		"\"\\\"Hello\\\", world!\\\n\"",
		"\"unterminated",
		"\"a\\",
		"12345 -12345 -.5 12345. . -",
		"12f345 12345.12f345 1.2.3",
		"an-!@$%^&*-+=~?.ident",
		"[a] {b} a|b a/b a'b a#b a,b",
		"(    # )",
		"\n \n \"multi \\\n line",
		"λ café 日本",
		"\xff\xfe(\x00)",
	} {
		f.Add([]byte(s))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return src
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
