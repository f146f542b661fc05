package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	testPath := filepath.Join(t.TempDir(), "frame.jpg")
	testData := []byte{0xFF, 0xD8, 0xFF, 0xD9}

	if err := fs.WriteFile(testPath, testData); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(testPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %x, got %x", testData, data)
	}

	info, err := os.Stat(testPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	testPath := filepath.Join(t.TempDir(), "a", "b", "c", "session.json")

	if err := fs.WriteFile(testPath, []byte("{}")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := os.Stat(testPath); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}

func TestFileSystem_WriteFileReplacesWithoutLeftovers(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	testPath := filepath.Join(dir, "out.mp4")

	if err := fs.WriteFile(testPath, []byte("first version")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.WriteFile(testPath, []byte("second")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, _ := fs.ReadFile(testPath)
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestFileSystem_Exists(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	exists, err := fs.Exists(dir)
	if err != nil || !exists {
		t.Errorf("expected directory to exist, got %v, %v", exists, err)
	}

	exists, err = fs.Exists(filepath.Join(dir, "missing"))
	if err != nil || exists {
		t.Errorf("expected missing path, got %v, %v", exists, err)
	}
}

func TestFileSystem_MkdirAllAndRemove(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "frames", "raw")

	if err := fs.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if exists, _ := fs.Exists(path); !exists {
		t.Fatal("expected directory to exist")
	}
	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected directory to be removed")
	}
}
