package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	dst := filepath.Join(dir, "public", "by_request_id", "abc", "song Instruments.wav")

	content := []byte("instrumental")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}

	leftovers, _ := os.ReadDir(filepath.Dir(dst))
	if len(leftovers) != 1 {
		t.Fatalf("expected only the destination file, found %d entries", len(leftovers))
	}
}

func TestCopyFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(dst, []byte("old and longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Fatalf("content = %q", got)
	}
}

func TestCopyFileMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileMode(src, dst, 0o755); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected executable bits, got %o", info.Mode().Perm())
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out", "dst")
	if err := CopyFile(filepath.Join(dir, "nope"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("destination should not exist, stat err = %v", err)
	}
}

func TestRegularFilesSkipsHiddenAndDirs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.m4a", "a.webm", ".part"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := RegularFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "a.webm,b.m4a" {
		t.Fatalf("names = %v", names)
	}

	missing, err := RegularFiles(filepath.Join(dir, "absent"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing dir = %v, %v", missing, err)
	}
}

func TestFirstMatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"song_Vocals.wav", "song_Instruments.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path, ok, err := FirstMatch(dir, func(name string) bool { return strings.HasSuffix(name, "_Instruments.wav") })
	if err != nil || !ok {
		t.Fatalf("FirstMatch = %q, %v, %v", path, ok, err)
	}
	if filepath.Base(path) != "song_Instruments.wav" {
		t.Fatalf("path = %q", path)
	}
	if _, ok, _ := FirstMatch(dir, func(string) bool { return false }); ok {
		t.Fatal("expected no match")
	}
}
