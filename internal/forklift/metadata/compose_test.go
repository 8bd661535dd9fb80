package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/dart-platform/dart-cli/internal/forklift"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/models"
)

func strs(v interface{}) []string {
	var out []string
	for _, item := range asList(v) {
		out = append(out, item.(string))
	}
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompose_LabelUnion(t *testing.T) {
	sidecar := models.Metadata{"labels": []interface{}{"b", "c"}}
	global := models.Metadata{"labels": []interface{}{"a", "b"}}

	got := Compose(sidecar, global)
	if labels := strs(got["labels"]); !equal(labels, []string{"a", "b", "c"}) {
		t.Errorf("labels = %v, want [a b c]", labels)
	}
	if len(asList(sidecar["labels"])) != 2 {
		t.Error("Compose modified the sidecar")
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		sidecar models.Metadata
		global  models.Metadata
		check   func(t *testing.T, got models.Metadata)
	}{
		{
			name:    "override keys",
			sidecar: models.Metadata{"genre": "news", "reannotate": false, "team": "x"},
			global:  models.Metadata{"genre": "sports", "reannotate": true},
			check: func(t *testing.T, got models.Metadata) {
				if got["genre"] != "sports" || got["reannotate"] != true || got["team"] != "x" {
					t.Errorf("got %v", got)
				}
			},
		},
		{
			name:    "global only keys are not forwarded",
			sidecar: models.Metadata{"team": "x"},
			global:  models.Metadata{"source": "crawler", "labels": []interface{}{"foo"}},
			check: func(t *testing.T, got models.Metadata) {
				if _, ok := got["source"]; ok {
					t.Error("non-merge global key forwarded")
				}
				if !equal(strs(got["labels"]), []string{"foo"}) {
					t.Errorf("labels = %v", got["labels"])
				}
			},
		},
		{
			name:    "sidecar tenants kept when global has none",
			sidecar: models.Metadata{"tenants": []interface{}{"t1"}},
			global:  models.Metadata{},
			check: func(t *testing.T, got models.Metadata) {
				if !equal(strs(got["tenants"]), []string{"t1"}) {
					t.Errorf("tenants = %v", got["tenants"])
				}
			},
		},
		{
			name:    "tenant union dedupes",
			sidecar: models.Metadata{"tenants": []interface{}{"t1", "t2"}},
			global:  models.Metadata{"tenants": []interface{}{"t2", "t3"}},
			check: func(t *testing.T, got models.Metadata) {
				if !equal(strs(got["tenants"]), []string{"t1", "t2", "t3"}) {
					t.Errorf("tenants = %v", got["tenants"])
				}
			},
		},
		{
			name:    "scalar sidecar label",
			sidecar: models.Metadata{"labels": "solo"},
			global:  models.Metadata{"labels": []interface{}{"solo", "extra"}},
			check: func(t *testing.T, got models.Metadata) {
				if !equal(strs(got["labels"]), []string{"extra", "solo"}) {
					t.Errorf("labels = %v", got["labels"])
				}
			},
		},
		{
			name:    "nil sidecar",
			sidecar: nil,
			global:  models.Metadata{"genre": "g"},
			check: func(t *testing.T, got models.Metadata) {
				if len(got) != 1 || got["genre"] != "g" {
					t.Errorf("got %v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Compose(tt.sidecar, tt.global))
		})
	}
}

func TestLoadSidecar(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("valid", func(t *testing.T) {
		doc, err := LoadSidecar(write("a.meta", `{"team":"x"}`))
		if err != nil || doc["team"] != "x" {
			t.Errorf("doc=%v err=%v", doc, err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		doc, err := LoadSidecar(filepath.Join(dir, "none.meta"))
		if err != nil || doc != nil {
			t.Errorf("doc=%v err=%v", doc, err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		sub := filepath.Join(dir, "d.meta")
		os.Mkdir(sub, 0755)
		doc, err := LoadSidecar(sub)
		if err != nil || doc != nil {
			t.Errorf("doc=%v err=%v", doc, err)
		}
	})

	for name, content := range map[string]string{
		"invalid.meta": `{"team":`,
		"array.meta":   `["a"]`,
		"null.meta":    `null`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSidecar(write(name, content))
			var metaErr *forklift.MetadataError
			if !errors.As(err, &metaErr) || metaErr.Source != forklift.SourceSidecar {
				t.Fatalf("expected sidecar MetadataError, got %v", err)
			}
			if forklift.IsFatal(err) {
				t.Error("sidecar errors must not be fatal")
			}
		})
	}
}

func TestComposer_InvalidSidecarFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "a.meta")
	os.WriteFile(meta, []byte("not json"), 0644)

	var buf bytes.Buffer
	c := NewComposer(models.Metadata{"labels": []interface{}{"foo"}}, logging.NewLogger(&buf))

	got := c.Compose(models.UploadTask{FilePath: filepath.Join(dir, "a.json"), MetaPath: meta})
	if len(got) != 1 || !equal(strs(got["labels"]), []string{"foo"}) {
		t.Errorf("got %v", got)
	}
	if !strings.Contains(buf.String(), "Ignoring unreadable sidecar") {
		t.Errorf("expected a warning, log was %q", buf.String())
	}
}

func TestComposer_Scenario(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "a.meta")
	os.WriteFile(meta, []byte(`{"team":"x"}`), 0644)

	c := NewComposer(models.Metadata{"labels": []interface{}{"foo"}}, nil)

	a := c.Compose(models.UploadTask{FilePath: filepath.Join(dir, "a.json"), MetaPath: meta})
	b := c.Compose(models.UploadTask{FilePath: filepath.Join(dir, "b.json"), MetaPath: filepath.Join(dir, "b.meta")})

	wantA, _ := json.Marshal(models.Metadata{"team": "x", "labels": []interface{}{"foo"}})
	gotA, _ := json.Marshal(a)
	if string(gotA) != string(wantA) {
		t.Errorf("a = %s, want %s", gotA, wantA)
	}
	gotB, _ := json.Marshal(b)
	if string(gotB) != `{"labels":["foo"]}` {
		t.Errorf("b = %s", gotB)
	}
}

func TestBuildGlobal(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "global.json")
	os.WriteFile(file, []byte(`{"genre":"file","labels":["old"],"tenants":["p1"]}`), 0644)

	got, err := BuildGlobal(GlobalOptions{
		File:    file,
		Inline:  `{"genre":"inline","reannotate":true}`,
		Labels:  []string{"a;b", " c "},
		Tenants: []string{"p2"},
	})
	if err != nil {
		t.Fatalf("BuildGlobal: %v", err)
	}

	if got["genre"] != "inline" || got["reannotate"] != true {
		t.Errorf("inline did not override file: %v", got)
	}
	if labels := strs(got["labels"]); !equal(labels, []string{"a", "b", "c"}) {
		t.Errorf("labels = %v, want [a b c]", labels)
	}
	if tenants := strs(got["tenants"]); !equal(tenants, []string{"p1", "p2"}) {
		t.Errorf("tenants = %v, want [p1 p2]", tenants)
	}
}

func TestBuildGlobal_NoLabelsKeepsSourceLabels(t *testing.T) {
	got, err := BuildGlobal(GlobalOptions{Inline: `{"labels":["keep"]}`})
	if err != nil {
		t.Fatalf("BuildGlobal: %v", err)
	}
	if !equal(strs(got["labels"]), []string{"keep"}) {
		t.Errorf("labels = %v", got["labels"])
	}
}

func TestBuildGlobal_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`[1,2]`), 0644)

	tests := []struct {
		name   string
		opts   GlobalOptions
		source forklift.MetadataSource
	}{
		{"missing file", GlobalOptions{File: filepath.Join(dir, "missing.json")}, forklift.SourceGlobalFile},
		{"non-object file", GlobalOptions{File: bad}, forklift.SourceGlobalFile},
		{"invalid inline", GlobalOptions{Inline: `{"a":`}, forklift.SourceGlobalInline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGlobal(tt.opts)
			var metaErr *forklift.MetadataError
			if !errors.As(err, &metaErr) || metaErr.Source != tt.source {
				t.Fatalf("expected %s MetadataError, got %v", tt.source, err)
			}
			if !forklift.IsFatal(err) {
				t.Error("global metadata errors must be fatal")
			}
		})
	}
}
