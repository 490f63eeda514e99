package indexer

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
)

// ScanConfig holds configuration for a workspace scan.
type ScanConfig struct {
	// RootPath is the directory to scan (required).
	RootPath string

	// IncludePatterns are glob patterns for files to include. If empty,
	// all files are included subject to exclusions.
	IncludePatterns []string

	// ExcludePatterns are glob patterns for files to exclude, in
	// addition to defaultExcludedDirs.
	ExcludePatterns []string

	// MaxFileSize is the maximum file size in bytes to include.
	MaxFileSize int64

	// LanguageOf resolves an extension to a known language, used for
	// the unknown-language-and-large-file exclusion rule. A nil value
	// treats every extension as unknown.
	LanguageOf func(ext string) (string, bool)
}

// MaxFileSize is the default per-file size limit, 1MiB per the spec
// (the teacher's own scanner defaults ten times higher, at 10MB, since
// it has no companion chunking-budget concern forcing a tighter cap).
const MaxFileSize int64 = 1 * 1024 * 1024

// unknownLanguageSizeLimit caps files of unrecognized language lower
// than MaxFileSize: a large file in a language this module cannot
// symbol-scope-chunk is unlikely to be worth indexing at all.
const unknownLanguageSizeLimit = 64 * 1024

var defaultExcludedDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	".next":        {},
	"dist":         {},
	"build":        {},
	".cache":       {},
	"target":       {},
	"bin":          {},
	"obj":          {},
	".idea":        {},
	".vscode":      {},
}

// FileInfo describes one file the scanner accepted.
type FileInfo struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	Extension string
}

var (
	ErrRootPathEmpty    = errors.New("indexer: root path cannot be empty")
	ErrRootPathNotExist = errors.New("indexer: root path does not exist")
	ErrRootPathNotDir   = errors.New("indexer: root path is not a directory")
)

// Scanner walks a directory tree and yields files matching the
// configured patterns, excluding binary files, oversize files, and
// large files of unrecognized language.
type Scanner struct {
	config          ScanConfig
	includeMatchers []glob.Glob
	excludeMatchers []glob.Glob
	maxFileSize     int64
}

// NewScanner constructs a Scanner. Patterns are compiled by each call
// to Scan.
func NewScanner(config ScanConfig) *Scanner {
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Scanner{config: config, maxFileSize: maxSize}
}

// Scan walks the configured root and streams accepted files on the
// returned channel, closing it when the walk completes or ctx is
// cancelled.
func (s *Scanner) Scan(ctx context.Context) (<-chan *FileInfo, error) {
	if s.config.RootPath == "" {
		return nil, ErrRootPathEmpty
	}
	info, err := os.Stat(s.config.RootPath)
	if os.IsNotExist(err) {
		return nil, ErrRootPathNotExist
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrRootPathNotDir
	}

	s.includeMatchers, err = compileGlobs(s.config.IncludePatterns)
	if err != nil {
		return nil, err
	}
	s.excludeMatchers, err = compileGlobs(s.config.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	fileCh := make(chan *FileInfo)
	go s.walk(ctx, fileCh)
	return fileCh, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

func (s *Scanner) walk(ctx context.Context, fileCh chan<- *FileInfo) {
	defer close(fileCh)

	_ = filepath.WalkDir(s.config.RootPath, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if path != s.config.RootPath {
				if _, excluded := defaultExcludedDirs[d.Name()]; excluded {
					return filepath.SkipDir
				}
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		relPath, err := filepath.Rel(s.config.RootPath, path)
		if err != nil {
			relPath = path
		}

		if !s.shouldInclude(relPath, d.Name(), info.Size()) {
			return nil
		}
		if looksBinary(path) {
			return nil
		}

		select {
		case fileCh <- buildFileInfo(path, d.Name(), info):
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

func (s *Scanner) shouldInclude(relPath, name string, size int64) bool {
	if matchesAny(s.excludeMatchers, relPath, name) {
		return false
	}
	if len(s.includeMatchers) > 0 && !matchesAny(s.includeMatchers, relPath, name) {
		return false
	}
	if size > s.maxFileSize {
		return false
	}

	ext := filepath.Ext(name)
	if s.config.LanguageOf != nil {
		if _, known := s.config.LanguageOf(ext); !known && size > unknownLanguageSizeLimit {
			return false
		}
	}

	return true
}

func matchesAny(matchers []glob.Glob, relPath, name string) bool {
	for _, m := range matchers {
		if m.Match(relPath) || m.Match(name) {
			return true
		}
	}
	return false
}

// looksBinary sniffs the first 8KiB of path for NUL bytes, the same
// heuristic used to reject non-text files before chunking.
func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 8*1024)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) != -1
}

func buildFileInfo(path, name string, info os.FileInfo) *FileInfo {
	return &FileInfo{
		Path:      path,
		Name:      name,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Extension: filepath.Ext(name),
	}
}
