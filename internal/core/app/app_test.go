package app

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xreflint/internal/core/config"
	"xreflint/internal/core/errors"
	"xreflint/internal/ui/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	undefinedInFunction = "<?php\nfunction f() {\n    echo $x;\n}\n"
	cleanFunction       = "<?php\nfunction g($a) {\n    return $a;\n}\n"
	malformedGlobal     = "<?php\nfunction h() {\n    global 1;\n}\n"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestApp(t *testing.T, root string, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Paths.ProjectRoot = root
	cfg.Scan.Paths = []string{root}
	cfg.Scan.Workers = 2
	if mutate != nil {
		mutate(cfg)
	}
	paths, err := config.ResolvePaths(cfg, root)
	require.NoError(t, err)
	a, err := New(cfg, paths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func lintAll(t *testing.T, a *App) report.Result {
	t.Helper()
	src, err := a.Source(nil)
	require.NoError(t, err)
	res, err := a.Lint(context.Background(), src)
	require.NoError(t, err)
	return res
}

func TestLintWorkingTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "bad.php"), undefinedInFunction)
	writeFile(t, filepath.Join(root, "src", "good.inc"), cleanFunction)
	writeFile(t, filepath.Join(root, "src", "broken.php"), malformedGlobal)
	writeFile(t, filepath.Join(root, "src", "notes.txt"), "$x")
	writeFile(t, filepath.Join(root, "vendor", "lib.php"), undefinedInFunction)
	writeFile(t, filepath.Join(root, "src", "page.tpl.php"), undefinedInFunction)

	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Exclude.Files = []string{"*.tpl.php"}
	})
	res := lintAll(t, a)

	paths := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		paths = append(paths, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"src/bad.php", "src/broken.php", "src/good.inc"}, paths)

	assert.Equal(t, report.Summary{Files: 2, FilesWithDefects: 1, Failed: 1, Errors: 1}, res.Summary)
	assert.Equal(t, "$x", res.Files[0].Defects[0].Token.Text)
	assert.True(t, errors.IsCode(res.Files[1].Err, errors.CodeMalformedSource))

	last, ok := a.LastResult()
	require.True(t, ok)
	assert.Equal(t, res.Summary, last.Summary)
}

func TestLintHonoursLintOptions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.php"), "<?php\necho $config;\nfunction f() {\n    my_init($v);\n    return $v;\n}\n")

	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Lint.GlobalVars = []string{"$config"}
		cfg.Lint.InitByReference = []string{"my_init,0"}
	})
	res := lintAll(t, a)
	assert.Equal(t, 0, res.Summary.Errors+res.Summary.Warnings, "%+v", res.Files)
}

func TestLintReusesUnchangedResults(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.php")
	writeFile(t, path, undefinedInFunction)
	a := newTestApp(t, root, nil)

	first := lintAll(t, a)
	require.Equal(t, 1, first.Summary.Errors)

	hash := ""
	a.cacheMu.RLock()
	hash = a.cache[path].hash
	a.cacheMu.RUnlock()
	require.NotEmpty(t, hash)

	cached, ok := a.cachedResult(path, hash)
	require.True(t, ok)
	assert.Len(t, cached.Defects, 1)

	writeFile(t, path, cleanFunction)
	second := lintAll(t, a)
	assert.Equal(t, 0, second.Summary.Errors)
}

func TestReloadChangesReportLevelAndClearsCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.php"), "<?php\necho $x;\n")
	a := newTestApp(t, root, nil)

	require.Equal(t, 1, lintAll(t, a).Summary.Warnings)

	next := config.DefaultConfig()
	next.Scan.Paths = []string{root}
	next.Lint.ReportLevel = "error"
	require.NoError(t, a.Reload(next))
	assert.Equal(t, 0, lintAll(t, a).Summary.Warnings)

	bad := config.DefaultConfig()
	bad.Lint.ReportLevel = "loud"
	assert.Error(t, a.Reload(bad))
}

func TestNewRejectsBadSignatures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Lint.InitByReference = []string{"broken,x"}
	_, err := New(cfg, config.ResolvedPaths{ProjectRoot: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestFileSystemSourceMissingRoot(t *testing.T) {
	src, err := NewFileSystemSource([]string{filepath.Join(t.TempDir(), "missing")}, []string{".php"}, nil, nil)
	require.NoError(t, err)
	_, err = src.Files(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestFileSystemSourceExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script")
	writeFile(t, path, cleanFunction)
	src, err := NewFileSystemSource([]string{path}, []string{".php"}, nil, nil)
	require.NoError(t, err)
	files, err := src.Files(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	content, err := files[0].Load()
	require.NoError(t, err)
	assert.Equal(t, cleanFunction, string(content))
}

func TestGitSource(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := t.TempDir()
	gitRun := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
			"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	gitRun("init", "-q")
	writeFile(t, filepath.Join(root, "lib", "a.php"), undefinedInFunction)
	writeFile(t, filepath.Join(root, "third_party", "b.php"), undefinedInFunction)
	writeFile(t, filepath.Join(root, "README.md"), "docs")
	gitRun("add", ".")
	gitRun("commit", "-q", "-m", "init")

	// The working tree diverges from the committed revision.
	writeFile(t, filepath.Join(root, "lib", "a.php"), cleanFunction)

	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Git.Revision = "HEAD"
		cfg.Git.Exclude = []string{"third_party"}
		cfg.Scan.Paths = nil
	})
	src, err := a.Source(nil)
	require.NoError(t, err)
	_, isGit := src.(*GitSource)
	require.True(t, isGit)

	res, err := a.Lint(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "lib/a.php", res.Files[0].Path)
	assert.Equal(t, 1, res.Summary.Errors)

	bad := &GitSource{Root: root, Revision: "no-such-rev", Extensions: []string{".php"}}
	_, err = bad.Files(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revision=no-such-rev")
}

func TestWriteReportToFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.php"), undefinedInFunction)
	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Output.Format = report.FormatJSON
		cfg.Output.Path = filepath.Join(root, "out", "report.json")
	})
	res := lintAll(t, a)

	var stdout bytes.Buffer
	require.NoError(t, a.WriteReport(&stdout, res, false))
	assert.Empty(t, stdout.String())
	data, err := os.ReadFile(filepath.Join(root, "out", "report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"errors": 1`)
}

func TestRecordRunAndTrend(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.php")
	writeFile(t, path, undefinedInFunction)
	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.History.Enabled = true
	})

	_, ok, err := a.RecordRun(lintAll(t, a))
	require.NoError(t, err)
	require.True(t, ok)

	writeFile(t, path, cleanFunction)
	trend, ok, err := a.RecordRun(lintAll(t, a))
	require.NoError(t, err)
	require.True(t, ok)
	latest, _ := trend.Latest()
	assert.Equal(t, -1, latest.DeltaErrors)
	assert.True(t, strings.HasPrefix(report.TrendLine(trend), "Since previous run: errors -1"))

	full, err := a.Trend(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, full.RunCount)
	_, err = os.Stat(a.Paths.HistoryPath)
	assert.NoError(t, err)
}

func TestRecordRunDisabled(t *testing.T) {
	a := newTestApp(t, t.TempDir(), nil)
	_, ok, err := a.RecordRun(report.Result{})
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = a.Trend(0)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestHealthService(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.php"), malformedGlobal)
	a := newTestApp(t, root, nil)
	h := NewHealthService(a)

	assert.Equal(t, "up", h.Check().Status)
	lintAll(t, a)
	status := h.Check()
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "1 files could not be analyzed", status.Components["last_run"])
	assert.Equal(t, "ok", status.Components["parser"])
}

func TestWatchRelintsChangedFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.php")
	writeFile(t, path, cleanFunction)
	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Watch.Debounce = 20 * time.Millisecond
	})

	results := make(chan report.Result, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, nil, "", func(r report.Result) { results <- r })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, undefinedInFunction)

	select {
	case res := <-results:
		assert.Equal(t, 1, res.Summary.Errors)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a watch-mode run")
	}
}

func TestWatchRejectsGitRevision(t *testing.T) {
	a := newTestApp(t, t.TempDir(), func(cfg *config.Config) {
		cfg.Git.Revision = "HEAD"
	})
	err := a.Watch(context.Background(), nil, "", nil)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}
