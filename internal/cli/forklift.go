package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dart-platform/dart-cli/internal/forklift/metadata"
	"github.com/dart-platform/dart-cli/internal/models"
)

// newForkliftCmd creates the 'forklift' command group.
func newForkliftCmd() *cobra.Command {
	forkliftCmd := &cobra.Command{
		Use:   "forklift",
		Short: "Bulk document ingest through the forklift service",
		Long:  `Commands for pushing documents into DART through the forklift ingest service.`,
	}

	forkliftCmd.AddCommand(newSubmitCmd("submit [files...]"))

	return forkliftCmd
}

// submitOptions holds the flags of 'forklift submit'.
type submitOptions struct {
	batch           batchFlags
	host            string
	forkliftURL     string
	metadataInline  string
	metadataFile    string
	labels          []string
	tenants         []string
	ignoreMetaFiles bool
}

// newSubmitCmd creates the submit command. It is registered both under
// 'forklift' and as the top-level shortcut.
func newSubmitCmd(use string) *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   use,
		Short: "Upload documents with metadata to the forklift service",
		Long: `Upload documents to the forklift ingest service.

Files given as arguments are posted first, then every file under --input-dir
(recursively, skipping names that start with "."). Each file is sent as a
multipart request with a "file" part and a JSON "metadata" part.

Metadata for a file is its sidecar (a.json -> a.meta next to it) merged with
the global metadata from --metadata-file, --metadata, --label and the
profile's tenants:
  reannotate, genre   taken from the global metadata when set there
  labels, tenants     union of sidecar and global values
  anything else       taken from the sidecar only

After posting, files move to --succeeded-dir or --failed-dir (keeping only
their base name) when those are set, and stay in place otherwise.

Examples:
  dart forklift submit --input-dir ./docs -s ./done -f ./failed
  dart forklift submit a.json b.json --label "news;2024" --tenant acme
  dart submit --input-dir ./docs --metadata '{"genre":"report"}' --threads 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if len(args) == 0 && opts.batch.inputDir == "" {
				return fmt.Errorf("provide files to upload or --input-dir")
			}

			overrides := opts.batch.overrides(cmd)
			overrides.Host = opts.host
			overrides.ForkliftURL = opts.forkliftURL
			overrides.Tenants = opts.tenants

			cfg, err := loadConfig(overrides)
			if err != nil {
				return err
			}

			headers, err := cfg.Auth.Headers()
			if err != nil {
				return fmt.Errorf("invalid auth configuration: %w", err)
			}

			global, err := metadata.BuildGlobal(metadata.GlobalOptions{
				File:    opts.metadataFile,
				Inline:  opts.metadataInline,
				Labels:  opts.labels,
				Tenants: cfg.Tenants,
			})
			if err != nil {
				return err
			}

			ctx, cancel := runContext()
			defer cancel()

			_, err = executeBatch(ctx, batchRun{
				files:           args,
				flags:           opts.batch,
				ignoreMetaFiles: opts.ignoreMetaFiles,
				cfg:             cfg,
				url:             cfg.UploadURL(),
				format:          models.FormatMultipart,
				includeMetadata: true,
				headers:         headers,
				composer:        metadata.NewComposer(global, logger),
			}, logger)
			return err
		},
	}

	opts.batch.register(cmd)
	cmd.Flags().StringVar(&opts.host, "host", "", "Service host (overrides profile and $DART_HOST)")
	cmd.Flags().StringVar(&opts.forkliftURL, "forklift-url", "", "Forklift API base URL (overrides --host)")
	cmd.Flags().StringVar(&opts.metadataInline, "metadata", "", "Global metadata as a JSON object")
	cmd.Flags().StringVar(&opts.metadataFile, "metadata-file", "", "File holding global metadata as a JSON object")
	cmd.Flags().StringArrayVar(&opts.labels, "label", nil, "Label for every file; repeatable, values may be separated by ';'")
	cmd.Flags().StringArrayVar(&opts.tenants, "tenant", nil, "Tenant for every file; repeatable, added to the profile's tenants")
	cmd.Flags().BoolVar(&opts.ignoreMetaFiles, "ignore-meta-files", false, "Do not read .meta sidecars; post them as ordinary files")

	return cmd
}
