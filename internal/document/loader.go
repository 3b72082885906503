package document

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/inbucket/html2text"
)

// sourcePath is the key a file's chunks are stored under. It is absolute so the
// same file reached through different relative paths maps to one source.
func sourcePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// SourceFile is a document read from disk
type SourceFile struct {
	Path    string
	Content string
}

// Loader reads ingestible files from files or directory trees
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadPaths loads every supported file under paths. Directories are walked
// recursively, skipping hidden entries. Explicit file arguments with an
// unsupported extension are an error, unsupported files found while walking are skipped.
func (l *Loader) LoadPaths(ctx context.Context, paths []string) ([]SourceFile, error) {
	var files []SourceFile

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("path does not exist: %w", err)
		}

		if !info.IsDir() {
			if !IsSupportedFile(path) {
				return nil, fmt.Errorf("unsupported file type: %s", path)
			}
			f, err := l.loadFile(path)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		found, err := l.loadDirectory(ctx, path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	return files, nil
}

func (l *Loader) loadDirectory(ctx context.Context, dirPath string) ([]SourceFile, error) {
	var files []SourceFile

	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != dirPath && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !IsSupportedFile(path) {
			return nil
		}

		f, err := l.loadFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dirPath, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (l *Loader) loadFile(path string) (SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return SourceFile{}, fmt.Errorf("%s is not valid UTF-8 text", path)
	}

	content := string(data)
	if isHTMLFile(path) {
		content, err = html2text.FromString(content, html2text.Options{OmitLinks: true})
		if err != nil {
			return SourceFile{}, fmt.Errorf("failed to convert %s to text: %w", path, err)
		}
	}

	return SourceFile{Path: sourcePath(path), Content: content}, nil
}
