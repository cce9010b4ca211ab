package internal

import (
	"bytes"
	"go/format"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// repoRoot returns the module root regardless of whether the test binary
// runs from internal/ or the root itself.
func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if filepath.Base(wd) == "internal" {
		return filepath.Dir(wd)
	}
	return wd
}

// goSources yields every tracked .go file under root, skipping vendor,
// hidden, and underscore-prefixed directories the way the toolchain does.
func goSources(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".go") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return files
}

// TestGofmt fails when any source file differs from its gofmt rendering.
// Fix with: gofmt -w .
func TestGofmt(t *testing.T) {
	root := repoRoot(t)
	for _, path := range goSources(t, root) {
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		want, err := format.Source(src)
		if err != nil {
			// Unparseable files (build tags, generated code) are not
			// this test's business.
			continue
		}
		if !bytes.Equal(src, want) {
			rel, _ := filepath.Rel(root, path)
			t.Errorf("%s is not gofmt-formatted", rel)
		}
	}
}

// TestLint runs golangci-lint over the module when the tool is available.
func TestLint(t *testing.T) {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		t.Skip("golangci-lint not installed")
	}

	cmd := exec.Command("golangci-lint", "run", "--allow-parallel-runners", "./...")
	cmd.Dir = repoRoot(t)
	// Sandboxed runners may have a read-only default build cache.
	cmd.Env = append(os.Environ(), "GOCACHE="+t.TempDir())
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Errorf("golangci-lint run:\n%s", out)
	}
}
