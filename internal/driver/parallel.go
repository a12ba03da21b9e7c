package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"schemelex/internal/diag"
	"schemelex/internal/source"
	"schemelex/internal/token"
)

// SourceExtensions lists the file extensions TokenizeDir picks up.
var SourceExtensions = []string{".scm", ".ss", ".lisp"}

// TokenizeDirResult содержит результат токенизации одного файла
type TokenizeDirResult struct {
	Path   string        // Путь к файлу
	FileID source.FileID // ID файла в FileSet
	Tokens []token.Token // Токены файла
	Err    error         // Первая ошибка лексера
	Bag    *diag.Bag     // Диагностики
	Cached bool
}

func isSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range SourceExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// ListSourceFiles возвращает отсортированный список исходников в директории
func ListSourceFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// TokenizeDir токенизирует все исходники в директории параллельно.
// Results are in ListSourceFiles order. A file that cannot be read gets an IO4001
// diagnostic in its own bag; only cancellation aborts the whole run.
func TokenizeDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []TokenizeDirResult, error) {
	runID := newRunID()
	log := opts.logger().With("run", runID, "dir", dir)

	// Собираем список файлов
	files, err := ListSourceFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		log.Info("no source files found")
		return fileSet, nil, nil
	}

	for _, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	// FileSet не потокобезопасен: регистрируем все файлы заранее, последовательно
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		if opts.Mode == ModeStream {
			fileIDs[path] = fileSet.AddStream(path)
			continue
		}
		fileID, loadErr := fileSet.Load(path, source.LoadOptions{NormalizeNFC: opts.NormalizeNFC})
		if loadErr != nil {
			// Сохраняем ошибку загрузки; пустая запись нужна, чтобы диагностике было куда указывать
			loadErrors[path] = loadErr
			fileIDs[path] = fileSet.Add(path, nil, 0)
			continue
		}
		fileIDs[path] = fileID
	}

	// Настраиваем параллелизм
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]TokenizeDirResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, hadError := loadErrors[path]; hadError {
				results[i] = loadFailure(path, fileIDs[path], loadErr, opts)
				return nil
			}

			fileID := fileIDs[path]
			res, tokErr := tokenizeFile(gctx, fileSet, path, opts, runID, &fileID)
			if tokErr != nil {
				if ctxErr := gctx.Err(); ctxErr != nil && errors.Is(tokErr, ctxErr) {
					return tokErr
				}
				results[i] = loadFailure(path, fileID, tokErr, opts)
				return nil
			}
			results[i] = TokenizeDirResult{
				Path:   path,
				FileID: fileID,
				Tokens: res.Tokens,
				Err:    res.Err,
				Bag:    res.Bag,
				Cached: res.Cached,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}

	failed := 0
	for i := range results {
		if results[i].Bag.HasErrors() {
			failed++
		}
	}
	log.Info("tokenize dir done", "files", len(files), "failed", failed, "jobs", jobs)
	return fileSet, results, nil
}

func loadFailure(path string, fileID source.FileID, err error, opts Options) TokenizeDirResult {
	bag := diag.NewBag(opts.maxDiagnostics())
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IOLoadFileError,
		Message:  fmt.Sprintf("failed to load file: %v", err),
		Primary:  source.Span{File: fileID}, // позиции нет, только файл
	})
	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err})
	return TokenizeDirResult{Path: path, FileID: fileID, Bag: bag}
}
