// Where: cli/internal/fileops/file_ops_test.go
// What: Filesystem helper tests.
package fileops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	if err := WriteFile(path, []byte("content")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "content" {
		t.Errorf("content = %q", payload)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	if err := WriteFile(src, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if FileExists(src) {
		t.Error("source should be gone after move")
	}
	payload, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "payload" {
		t.Errorf("content = %q", payload)
	}
}

func TestExistenceHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := WriteFile(file, nil); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) || FileExists(filepath.Join(dir, "absent")) {
		t.Error("FileExists misreports")
	}
	if !DirExists(dir) || DirExists(file) {
		t.Error("DirExists misreports")
	}
}

func TestRemoveDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "victim")
	if err := WriteFile(filepath.Join(dir, "f"), []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := RemoveDir(dir); err != nil {
		t.Fatalf("RemoveDir failed: %v", err)
	}
	if DirExists(dir) {
		t.Error("directory should be gone")
	}
}
