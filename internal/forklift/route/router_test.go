package route

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dart-platform/dart-cli/internal/forklift"
	"github.com/dart-platform/dart-cli/internal/models"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name       string
		succeeded  bool
		failed     bool
		kind       models.OutcomeKind
		wantMoved  bool
		wantSubdir string
	}{
		{"success to succeeded dir", true, true, models.Succeeded, true, "ok"},
		{"failure to failed dir", true, true, models.Failed, true, "bad"},
		{"success without succeeded dir", false, true, models.Succeeded, false, ""},
		{"failure without failed dir", true, false, models.Failed, false, ""},
		{"cancelled stays", true, true, models.Cancelled, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			src := filepath.Join(root, "in", "nested", "a.json")
			touch(t, src, "{}")

			var okDir, badDir string
			if tt.succeeded {
				okDir = filepath.Join(root, "ok")
			}
			if tt.failed {
				badDir = filepath.Join(root, "bad")
			}
			r, err := NewRouter(okDir, badDir, nil)
			if err != nil {
				t.Fatalf("NewRouter: %v", err)
			}

			dest, err := r.Route(models.UploadTask{FilePath: src}, models.Outcome{Kind: tt.kind})
			if err != nil {
				t.Fatalf("Route: %v", err)
			}

			if !tt.wantMoved {
				if dest != "" || !exists(src) {
					t.Errorf("expected file left in place, dest=%q", dest)
				}
				return
			}
			want := filepath.Join(root, tt.wantSubdir, "a.json")
			if dest != want {
				t.Errorf("dest = %q, want %q", dest, want)
			}
			if exists(src) || !exists(want) {
				t.Errorf("file not moved: src exists=%v dest exists=%v", exists(src), exists(want))
			}
		})
	}
}

func TestRoute_CollisionOverwrites(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "in", "x", "report.json")
	second := filepath.Join(root, "in", "y", "report.json")
	touch(t, first, "first")
	touch(t, second, "second")

	r, err := NewRouter(filepath.Join(root, "ok"), "", nil)
	if err != nil {
		t.Fatal(err)
	}

	for i, p := range []string{first, second} {
		if _, err := r.Route(models.UploadTask{Index: i, FilePath: p}, models.Outcome{Kind: models.Succeeded}); err != nil {
			t.Fatalf("Route(%s): %v", p, err)
		}
	}

	entries, _ := os.ReadDir(filepath.Join(root, "ok"))
	if len(entries) != 1 {
		t.Fatalf("succeeded dir has %d entries, want 1", len(entries))
	}
	got, _ := os.ReadFile(filepath.Join(root, "ok", "report.json"))
	if string(got) != "second" {
		t.Errorf("content = %q, want the later file", got)
	}
}

func TestRoute_MissingSourceIsRoutingError(t *testing.T) {
	root := t.TempDir()
	r, err := NewRouter(filepath.Join(root, "ok"), filepath.Join(root, "bad"), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Route(models.UploadTask{FilePath: filepath.Join(root, "gone.json")}, models.Outcome{Kind: models.Failed})
	var routeErr *forklift.RoutingError
	if !errors.As(err, &routeErr) {
		t.Fatalf("expected RoutingError, got %v", err)
	}
	if forklift.IsFatal(err) {
		t.Error("routing errors must not be fatal")
	}
}

func TestNewRouter_CreatesDirectories(t *testing.T) {
	root := t.TempDir()
	ok := filepath.Join(root, "deep", "ok")
	bad := filepath.Join(root, "deep", "bad")
	if _, err := NewRouter(ok, bad, nil); err != nil {
		t.Fatal(err)
	}
	if !exists(ok) || !exists(bad) {
		t.Error("destination directories not created")
	}
}

func TestNewRouter_UncreatableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path semantics differ")
	}
	root := t.TempDir()
	file := filepath.Join(root, "file")
	touch(t, file, "x")

	if _, err := NewRouter(filepath.Join(file, "ok"), "", nil); err == nil {
		t.Error("expected error when a path component is a file")
	}
}

func TestCopyFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.txt")
	dst := filepath.Join(root, "dst.txt")
	touch(t, src, "payload")

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "payload" {
		t.Errorf("content = %q", got)
	}
	if exists(dst + ".partial") {
		t.Error("temporary file left behind")
	}
}

func TestFindCollisions(t *testing.T) {
	tasks := []models.UploadTask{
		{Index: 0, FilePath: filepath.Join("a", "report.json")},
		{Index: 1, FilePath: filepath.Join("b", "report.json")},
		{Index: 2, FilePath: filepath.Join("a", "unique.json")},
		{Index: 3, FilePath: filepath.Join("c", "data.csv")},
		{Index: 4, FilePath: filepath.Join("d", "data.csv")},
		{Index: 5, FilePath: filepath.Join("e", "report.json")},
	}

	collisions, count := FindCollisions(tasks)
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if len(collisions) != 2 {
		t.Fatalf("got %d groups, want 2", len(collisions))
	}
	if collisions[0].Name != "data.csv" || len(collisions[0].Indices) != 2 {
		t.Errorf("group 0 = %+v", collisions[0])
	}
	if collisions[1].Name != "report.json" || len(collisions[1].Indices) != 3 {
		t.Errorf("group 1 = %+v", collisions[1])
	}

	if c, n := FindCollisions(nil); c != nil || n != 0 {
		t.Errorf("empty input = %v, %d", c, n)
	}
}
