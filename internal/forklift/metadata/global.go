package metadata

import (
	"strings"

	"github.com/dart-platform/dart-cli/internal/forklift"
	"github.com/dart-platform/dart-cli/internal/models"
)

// GlobalOptions are the run-wide metadata sources, lowest priority first.
type GlobalOptions struct {
	File    string   // JSON object file (--metadata-file)
	Inline  string   // JSON object text (--metadata), applied over File
	Labels  []string // --label values; each may hold several labels separated by ";"
	Tenants []string // profile tenants, appended to any tenants already present
}

// BuildGlobal assembles the global metadata object.
//
// The file is loaded first and the inline object is layered over it key by
// key. Labels given on the command line replace any labels from those
// sources. Tenants are appended. Parse failures are fatal and returned as
// *forklift.MetadataError.
func BuildGlobal(opts GlobalOptions) (models.Metadata, error) {
	global := models.Metadata{}

	if opts.File != "" {
		doc, err := readObject(opts.File)
		if err != nil {
			return nil, &forklift.MetadataError{Source: forklift.SourceGlobalFile, Path: opts.File, Err: err}
		}
		for k, v := range doc {
			global[k] = v
		}
	}

	if strings.TrimSpace(opts.Inline) != "" {
		doc, err := parseObject([]byte(opts.Inline))
		if err != nil {
			return nil, &forklift.MetadataError{Source: forklift.SourceGlobalInline, Err: err}
		}
		for k, v := range doc {
			global[k] = v
		}
	}

	if labels := SplitLabels(opts.Labels); len(labels) > 0 {
		global[KeyLabels] = toInterfaces(labels)
	}

	if len(opts.Tenants) > 0 {
		existing := asList(global[KeyTenants])
		global[KeyTenants] = append(existing, toInterfaces(opts.Tenants)...)
	}

	return global, nil
}

// SplitLabels flattens label flag values, splitting each on ";".
func SplitLabels(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ";") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
