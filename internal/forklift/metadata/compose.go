// Package metadata builds the global metadata object for a run and merges it
// with per-file sidecar documents.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/forklift"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/models"
)

// Keys taken from the global object. Everything else in the global
// object is ignored per file.
const (
	KeyReannotate = "reannotate"
	KeyGenre      = "genre"
	KeyLabels     = "labels"
	KeyTenants    = "tenants"
)

var (
	overrideKeys = []string{KeyReannotate, KeyGenre}
	unionKeys    = []string{KeyLabels, KeyTenants}
)

// Compose merges a sidecar document with the global object.
//
// The sidecar is the base layer. reannotate and genre are overwritten by
// the global value when present there. labels and tenants become the
// union of both sources when both define them, otherwise whichever source
// defines them. The sidecar map is not modified.
func Compose(sidecar, global models.Metadata) models.Metadata {
	out := make(models.Metadata, len(sidecar)+len(unionKeys))
	for k, v := range sidecar {
		out[k] = v
	}

	for _, key := range overrideKeys {
		if v, ok := global[key]; ok {
			out[key] = v
		}
	}

	for _, key := range unionKeys {
		gv, ok := global[key]
		if !ok {
			continue
		}
		if sv, ok := out[key]; ok {
			out[key] = union(asList(sv), asList(gv))
		} else {
			out[key] = gv
		}
	}

	return out
}

// union concatenates a and b, dropping values already seen.
// Order is a's items followed by b's new items.
func union(a, b []interface{}) []interface{} {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]interface{}, 0, len(a)+len(b))
	for _, list := range [][]interface{}{a, b} {
		for _, v := range list {
			key := identity(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}

func identity(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

// asList treats a scalar as a one-element list.
func asList(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return t
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []interface{}{t}
	}
}

// LoadSidecar reads a sidecar document. It returns (nil, nil) when path is
// empty or does not name a regular file.
func LoadSidecar(path string) (models.Metadata, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil
	}

	doc, err := readObject(path)
	if err != nil {
		return nil, &forklift.MetadataError{Source: forklift.SourceSidecar, Path: path, Err: err}
	}
	return doc, nil
}

func readObject(path string) (models.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, constants.MaxSidecarSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > constants.MaxSidecarSize {
		return nil, fmt.Errorf("larger than %d bytes", constants.MaxSidecarSize)
	}
	return parseObject(data)
}

// parseObject decodes data, which must be a JSON object.
func parseObject(data []byte) (models.Metadata, error) {
	var doc models.Metadata
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	return doc, nil
}

// Composer produces per-task metadata against a fixed global object.
// It is safe for concurrent use.
type Composer struct {
	global models.Metadata
	logger *logging.Logger
}

// NewComposer creates a composer. global is copied.
func NewComposer(global models.Metadata, logger *logging.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	g := make(models.Metadata, len(global))
	for k, v := range global {
		g[k] = v
	}
	return &Composer{global: g, logger: logger}
}

// Compose returns the metadata for task. Sidecar problems are logged and
// the task proceeds with an empty sidecar.
func (c *Composer) Compose(task models.UploadTask) models.Metadata {
	if !task.HasSidecar() {
		return Compose(nil, c.global)
	}
	sidecar, err := LoadSidecar(task.MetaPath)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Int("index", task.Index).
			Str("file", task.FilePath).
			Str("stage", "metadata").
			Msg("Ignoring unreadable sidecar")
		sidecar = nil
	}
	return Compose(sidecar, c.global)
}
