package utils

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFindProjectRootWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "project.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "reports", "nested")
	if err := EnsureDir(deep); err != nil {
		t.Fatal(err)
	}
	got, err := FindProjectRoot(deep)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != root {
		t.Fatalf("expected %s, got %s", root, got)
	}
	if _, err := FindProjectRoot(t.TempDir()); !errors.Is(err, ErrNoProject) {
		t.Fatalf("expected ErrNoProject outside a project, got %v", err)
	}
}

func TestSafeWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.json")
	if err := SafeWriteFile(p, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := SafeWriteFile(p, []byte("two")); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "two" {
		t.Fatalf("got %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestSafeWriteFileConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "index.json")
	bodies := []string{"aaaaaaaa", "bbbbbbbb", "cccccccc", "dddddddd"}
	var wg sync.WaitGroup
	errs := make(chan error, len(bodies)*10)
	for _, body := range bodies {
		wg.Add(1)
		go func(body string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if err := SafeWriteFile(p, []byte(body)); err != nil {
					errs <- err
				}
			}
		}(body)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent write: %v", err)
	}
	b, _ := os.ReadFile(p)
	found := false
	for _, body := range bodies {
		found = found || string(b) == body
	}
	if !found {
		t.Fatalf("torn write: %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestPrettyJSONKeepsMarkup(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a<b": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"a<b\": 1\n}" {
		t.Fatalf("got %s", b)
	}
}
