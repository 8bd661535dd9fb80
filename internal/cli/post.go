package cli

import (
	"fmt"
	nethttp "net/http"

	"github.com/spf13/cobra"

	"github.com/dart-platform/dart-cli/internal/config"
	"github.com/dart-platform/dart-cli/internal/models"
)

// newPostCmd creates the 'post' command.
func newPostCmd() *cobra.Command {
	var (
		batch        batchFlags
		url          string
		uploadFormat string
		auth         string
	)

	cmd := &cobra.Command{
		Use:   "post --url URL [files...]",
		Short: "Post files to an arbitrary HTTP endpoint",
		Long: `Post each file to a service URL without metadata.

Upload formats:
  json       the file must hold valid JSON and is sent as application/json
  multipart  the file is sent as the "file" part of a multipart form
             (aliases: binary, file)
  text       the file is sent as text/plain

Sidecar .meta files get no special treatment here and are posted like any
other file. Routing, concurrency, retry and report flags behave as in
'forklift submit'.

Examples:
  dart post --url http://localhost:8080/ingest --input-dir ./docs
  dart post --url https://example.org/api -u multipart -a user:secret a.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if url == "" {
				return fmt.Errorf("--url is required")
			}
			if len(args) == 0 && batch.inputDir == "" {
				return fmt.Errorf("provide files to upload or --input-dir")
			}

			format, err := models.ParseFormat(uploadFormat)
			if err != nil {
				return err
			}

			headers := nethttp.Header{}
			if auth != "" {
				creds, err := config.ParseBasicAuth(auth)
				if err != nil {
					return fmt.Errorf("invalid --auth: %w", err)
				}
				if headers, err = creds.Headers(); err != nil {
					return err
				}
			}

			// The profile still supplies proxy, worker and retry settings.
			cfg, err := loadConfig(batch.overrides(cmd))
			if err != nil {
				return err
			}

			ctx, cancel := runContext()
			defer cancel()

			_, err = executeBatch(ctx, batchRun{
				files:           args,
				flags:           batch,
				ignoreMetaFiles: true,
				cfg:             cfg,
				url:             url,
				format:          format,
				headers:         headers,
			}, logger)
			return err
		},
	}

	batch.register(cmd)
	cmd.Flags().StringVar(&url, "url", "", "Service URL to post to (required)")
	cmd.Flags().StringVarP(&uploadFormat, "upload-format", "u", string(models.FormatJSON), "Request body format: json, multipart or text")
	cmd.Flags().StringVarP(&auth, "auth", "a", "", "Basic auth as user:password")

	return cmd
}
