package driver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rdenadai/sigil/config"
	"github.com/rdenadai/sigil/pkg/sigil/ast"
	"github.com/rdenadai/sigil/pkg/sigil/compiler"
	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
)

// FileResult is the outcome of checking one source file
type FileResult struct {
	Path     string
	Hash     string
	Size     int64
	Tokens   int
	Nodes    int
	Duration time.Duration
	Cached   bool               // result came from the check log
	Err      *perrors.SigilError // nil when the file is well formed
}

// OK reports whether the file checked cleanly.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// Checker finds Sigil sources and syntax-checks them concurrently.
type Checker struct {
	Extensions   []string
	Exclude      []string
	IgnoreHidden bool
	MaxDepth     int
	Workers      int       // 0 means runtime.NumCPU()
	Log          *CheckLog // optional; unchanged files are skipped when set
	Logger       *Logger   // optional
}

// NewChecker builds a Checker from project configuration.
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{
		Extensions:   cfg.Sources.Extensions,
		Exclude:      cfg.Sources.Exclude,
		IgnoreHidden: cfg.Watch.IgnoreHidden,
		MaxDepth:     cfg.Parser.MaxDepth,
	}
}

// Accepts reports whether path names a source file the checker handles.
func (c *Checker) Accepts(path string) bool {
	if !compiler.IsSource(path, c.Extensions) {
		return false
	}
	base := filepath.Base(path)
	if c.IgnoreHidden && strings.HasPrefix(base, ".") {
		return false
	}
	for _, pattern := range c.Exclude {
		if ok, _ := filepath.Match(pattern, base); ok {
			return false
		}
	}
	return true
}

// Discover expands roots into a sorted list of source files. Files named
// explicitly are kept even when their extension is not configured.
func (c *Checker) Discover(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if c.IgnoreHidden && path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if c.Accepts(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// CheckFile tokenizes and parses one file.
func (c *Checker) CheckFile(ctx context.Context, path string) FileResult {
	start := time.Now()
	result := FileResult{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Err = perrors.NewSimple(perrors.ClassIO, err.Error()).WithFile(path)
		return result
	}
	result.Size = int64(len(content))
	result.Hash = ContentHash(content, c.MaxDepth)

	if c.Log != nil {
		rec, ok, err := c.Log.Lookup(ctx, path, result.Hash)
		if err != nil {
			c.Logger.Errorf("CHECK", "check log lookup failed: %v", err)
		} else if ok {
			result.Cached = true
			result.Err = recordError(rec)
			result.Duration = time.Since(start)
			c.Logger.Debugf("CHECK", "%s unchanged, skipped", path)
			return result
		}
	}

	res, err := compiler.Compile(path, string(content), compiler.Options{
		Stop:     compiler.StageParse,
		MaxDepth: c.MaxDepth,
	})
	if res != nil {
		result.Tokens = len(res.Tokens)
		if res.Program != nil {
			res.Program.Inspect(func(*ast.Node) bool {
				result.Nodes++
				return true
			})
		}
	}
	if err != nil {
		var serr *perrors.SigilError
		if !errors.As(err, &serr) {
			serr = perrors.NewSimple(perrors.ClassParse, err.Error())
		}
		if serr.File == "" {
			serr = serr.WithFile(path)
		}
		result.Err = serr
	}
	result.Duration = time.Since(start)

	if c.Log != nil {
		if err := c.Log.Record(ctx, toRecord(result)); err != nil {
			c.Logger.Errorf("CHECK", "check log write failed: %v", err)
		}
	}
	return result
}

// Check runs CheckFile over paths with a bounded pool of workers. Results
// are returned in the order of paths. Cancelling ctx stops handing out
// files and returns ctx.Err() with the results gathered so far.
func (c *Checker) Check(ctx context.Context, paths []string) ([]FileResult, error) {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]FileResult, len(paths))
	done := make([]bool, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.CheckFile(ctx, paths[i])
				done[i] = true
			}
		}()
	}

	var err error
feed:
	for i := range paths {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		var partial []FileResult
		for i, ok := range done {
			if ok {
				partial = append(partial, results[i])
			}
		}
		return partial, err
	}

	for _, r := range results {
		if r.OK() {
			c.Logger.Debugf("CHECK", "%s ok (%d tokens)", r.Path, r.Tokens)
		} else {
			c.Logger.FileError("CHECK", r.Path, r.Err)
		}
	}
	return results, nil
}

// Failed counts results with errors.
func Failed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

func toRecord(r FileResult) CheckRecord {
	rec := CheckRecord{Path: r.Path, Hash: r.Hash, OK: r.OK()}
	if r.Err != nil {
		rec.Code = r.Err.Code
		rec.Message = r.Err.Message
		rec.Line = r.Err.Line
		rec.Column = r.Err.Column
	}
	return rec
}

func recordError(rec *CheckRecord) *perrors.SigilError {
	if rec.OK {
		return nil
	}
	class := perrors.ClassParse
	if strings.HasPrefix(rec.Code, "LEX-") {
		class = perrors.ClassLex
	}
	return &perrors.SigilError{
		Class:   class,
		Code:    rec.Code,
		Message: rec.Message,
		Line:    rec.Line,
		Column:  rec.Column,
		File:    rec.Path,
	}
}
