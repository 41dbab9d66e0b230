package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireCreatesUniqueDirs(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := m.Acquire("judge")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Acquire("judge")
	if err != nil {
		t.Fatal(err)
	}

	if first.Dir() == second.Dir() {
		t.Fatalf("expected unique dirs, both are %s", first.Dir())
	}
	for _, ws := range []*Workspace{first, second} {
		info, err := os.Stat(ws.Dir())
		if err != nil || !info.IsDir() {
			t.Errorf("workspace dir %s not created: %v", ws.Dir(), err)
		}
		if !strings.HasPrefix(filepath.Base(ws.Dir()), "judge-") {
			t.Errorf("dir %s missing prefix", ws.Dir())
		}
	}
}

func TestReleaseRemovesEverything(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ws, err := m.Acquire("judge")
	if err != nil {
		t.Fatal(err)
	}

	sub, err := ws.Subdir("case-visible-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "output.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ws.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Fatalf("workspace dir still exists after release")
	}

	// Release twice is a no-op.
	if err := ws.Release(); err != nil {
		t.Fatalf("second release failed: %v", err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ws, err := m.Acquire("judge")
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Release()

	if _, err := ws.Path("../escape"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := ws.Path("nested/ok.txt"); err != nil {
		t.Fatalf("nested path rejected: %v", err)
	}
}
