package app

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"xreflint/internal/core/app/helpers"
	"xreflint/internal/core/errors"
	"xreflint/internal/shared/util"

	"github.com/gobwas/glob"
)

// SourceFile is one file to lint. Load is called from a worker goroutine.
type SourceFile struct {
	Path string
	Load func() ([]byte, error)
}

// SourceProvider lists the files of one lint run.
type SourceProvider interface {
	Files(ctx context.Context) ([]SourceFile, error)
}

// FileSystemSource walks directories of the working tree.
type FileSystemSource struct {
	roots        []string
	extensions   []string
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func NewFileSystemSource(roots, extensions, excludeDirs, excludeFiles []string) (*FileSystemSource, error) {
	dirGlobs, err := helpers.CompileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "exclude dirs")
	}
	fileGlobs, err := helpers.CompileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "exclude files")
	}
	return &FileSystemSource{
		roots:        helpers.UniqueScanRoots(roots),
		extensions:   extensions,
		excludeDirs:  dirGlobs,
		excludeFiles: fileGlobs,
	}, nil
}

// Files returns matching files under every root. A root that names a file
// is linted whatever its extension.
func (s *FileSystemSource) Files(ctx context.Context) ([]SourceFile, error) {
	seen := make(map[string]bool)
	var files []SourceFile
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, SourceFile{Path: path, Load: func() ([]byte, error) { return os.ReadFile(path) }})
	}

	for _, root := range s.roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "scan root"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			base := filepath.Base(path)
			if d.IsDir() {
				if path != root && helpers.MatchAny(s.excludeDirs, base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !hasExtension(path, s.extensions) || helpers.MatchAny(s.excludeFiles, base) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// GitSource lists files of a committed revision and reads them with
// git show, leaving the working tree untouched.
type GitSource struct {
	Root       string
	Revision   string
	Paths      []string
	Exclude    []string
	Extensions []string
}

func (s *GitSource) Files(ctx context.Context) ([]SourceFile, error) {
	if _, err := s.git(ctx, "rev-parse", "--verify", "--quiet", s.Revision+"^{commit}"); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "unknown git revision"), errors.CtxRevision, s.Revision)
	}
	out, err := s.git(ctx, "ls-tree", "-r", "-z", "--full-tree", "--name-only", s.Revision)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "list revision files"), errors.CtxRevision, s.Revision)
	}

	var files []SourceFile
	for _, name := range strings.Split(string(out), "\x00") {
		if name == "" || !hasExtension(name, s.Extensions) || !s.included(name) {
			continue
		}
		name := name
		files = append(files, SourceFile{
			Path: name,
			Load: func() ([]byte, error) {
				return s.git(ctx, "show", s.Revision+":"+name)
			},
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *GitSource) included(name string) bool {
	for _, ex := range s.Exclude {
		if util.HasPathPrefix(name, ex) {
			return false
		}
	}
	if len(s.Paths) == 0 {
		return true
	}
	for _, p := range s.Paths {
		p = util.NormalizePatternPath(p)
		if p == "" || util.HasPathPrefix(name, p) {
			return true
		}
	}
	return false
}

func (s *GitSource) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", s.Root}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrap(err, errors.CodeInternal, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func hasExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
