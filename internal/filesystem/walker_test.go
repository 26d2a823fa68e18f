package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"index.php",
		"readme.txt",
		"uploads/shell.php",
		"uploads/deep/x.jsp",
		".git/hooks/pre-commit.py",
		"node_modules/pkg/index.php",
	}
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func collect(t *testing.T, w *Walker, root string, recursive bool) []string {
	t.Helper()
	var got []string
	err := w.Walk(root, recursive, func(path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	sort.Strings(got)
	return got
}

func TestWalker_Walk(t *testing.T) {
	root := makeTree(t)
	walker := NewWalker([]string{".git", "node_modules"}, nil)

	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{"direct children only", false, []string{"index.php", "readme.txt"}},
		{"recursive skips excluded", true, []string{"index.php", "readme.txt", "uploads/deep/x.jsp", "uploads/shell.php"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, walker, root, tt.recursive)
			if len(got) != len(tt.want) {
				t.Fatalf("Walk() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Walk()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWalker_StopsOnCallbackError(t *testing.T) {
	root := makeTree(t)
	stop := errors.New("stop")

	calls := 0
	err := NewWalker(nil, nil).Walk(root, true, func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestWalker_MissingRoot(t *testing.T) {
	err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "missing"), true, func(string) error {
		t.Error("callback should not be called")
		return nil
	})
	if err != nil {
		t.Errorf("Walk() on missing root error = %v, want nil", err)
	}
}
