// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, nil, []string{"["}, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change of %s", want)
		}
	}
}

func TestWatcher_ModelFiles(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, []string{"draft_*"}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{dir}); err != nil {
		t.Fatal(err)
	}

	model := filepath.Join(dir, "orgA.xml")
	if err := os.WriteFile(model, []byte("<sbml/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, model)

	for _, name := range []string{"notes.txt", "draft_orgB.xml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changed:
		t.Fatalf("ignored files triggered a change: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	sub := filepath.Join(dir, "gut")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	nested := filepath.Join(sub, "orgC.sbml")
	if err := os.WriteFile(nested, []byte("<sbml/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, nested)
}

func TestWatcher_TrackedSeedFile(t *testing.T) {
	models := t.TempDir()
	seeds := filepath.Join(t.TempDir(), "glucose.txt")
	if err := os.WriteFile(seeds, []byte("glc_e\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 8)
	w, err := NewWatcher(20*time.Millisecond, nil, nil, func(paths []string) { changed <- paths })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Track(seeds); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch([]string{models}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(seeds, []byte("glc_e\no2_e\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, seeds)
}

func TestWatcher_ShouldIgnore(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, []string{"*_old.xml"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	tests := []struct {
		path   string
		ignore bool
	}{
		{"/m/orgA.xml", false},
		{"/m/orgA.XML", false},
		{"/m/orgA.sbml", false},
		{"/m/orgA_old.xml", true},
		{"/m/readme.md", true},
	}
	for _, tc := range tests {
		if got := w.shouldIgnore(tc.path); got != tc.ignore {
			t.Errorf("shouldIgnore(%s) = %v, want %v", tc.path, got, tc.ignore)
		}
	}
}

func TestWatcher_ShouldIgnoreOutsideInclude(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, []string{"org*.xml"}, []string{"*_old.xml"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	seeds := filepath.Join(t.TempDir(), "glc.txt")
	if err := w.Track(seeds); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path   string
		ignore bool
	}{
		{"/m/orgA.xml", false},
		{"/m/orgA_old.xml", true},
		{"/m/notes.xml", true},
		{"/m/orgA.sbml", true},
		{seeds, false},
	}
	for _, tc := range tests {
		if got := w.shouldIgnore(tc.path); got != tc.ignore {
			t.Errorf("shouldIgnore(%s) = %v, want %v", tc.path, got, tc.ignore)
		}
	}
}
