package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./src/app.php  ", expected: "src/app.php"},
		{name: "Relative", input: "lib/../vendor", expected: "vendor"},
		{name: "Backslashes", input: `lib\Legacy\x.php`, expected: "lib/Legacy/x.php"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePatternPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		path     string
		prefix   string
		expected bool
	}{
		{name: "Exact", path: "vendor/lib", prefix: "vendor/lib", expected: true},
		{name: "Nested", path: "vendor/lib/a.php", prefix: "vendor", expected: true},
		{name: "Neighbor", path: "vendors/a.php", prefix: "vendor", expected: false},
		{name: "Shorter", path: "vendor", prefix: "vendor/lib", expected: false},
		{name: "RelativePrefix", path: "./tests/a.php", prefix: "tests", expected: true},
		{name: "EmptyPrefix", path: "a.php", prefix: "", expected: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasPathPrefix(tc.path, tc.prefix); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports", "nested", "out.json")
	if err := WriteFileWithDirs(target, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestHashes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.php")
	content := []byte("<?php echo $x;\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	fileHash, err := FileHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if fileHash != ContentHash(content) {
		t.Fatalf("file and content hash differ: %s vs %s", fileHash, ContentHash(content))
	}
	if len(fileHash) != 16 {
		t.Fatalf("expected 64-bit hex digest, got %q", fileHash)
	}
	if ContentHash([]byte("other")) == fileHash {
		t.Fatal("expected different digests for different content")
	}
	if _, err := FileHash(filepath.Join(t.TempDir(), "missing.php")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
