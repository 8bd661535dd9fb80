package constants

import (
	"time"
)

// Service endpoint defaults
const (
	// DefaultHost - forklift host when the profile does not name one
	DefaultHost = "localhost"

	// DefaultForkliftPort - port the forklift service listens on
	DefaultForkliftPort = 8091

	// ForkliftBasePath - base path of the forklift API
	ForkliftBasePath = "/dart/api/v1/forklift"

	// ForkliftUploadPath - appended to the forklift base URL for document ingest
	ForkliftUploadPath = "/upload"

	// DefaultProfile - profile name used when neither --profile nor DART_PROFILE is set
	DefaultProfile = "default"

	// ProfileExtension - suffix of profile files under the config directory
	ProfileExtension = ".conf"
)

// Upload worker pool
const (
	// DefaultWorkers - default number of concurrent upload workers
	DefaultWorkers = 6

	// MinWorkers - minimum workers (sequential mode)
	MinWorkers = 1

	// MaxWorkers - maximum workers allowed
	MaxWorkers = 64
)

// Retry configuration
const (
	// DefaultRetryAttempts - total attempts per file including the first one.
	// A single attempt keeps behavior identical to the legacy client.
	DefaultRetryAttempts = 1

	// DefaultRetryDelay - fixed delay between attempts (200ms)
	DefaultRetryDelay = 200 * time.Millisecond

	// MaxRetryAttempts - upper bound accepted from flags and profiles
	MaxRetryAttempts = 20
)

// Progress reporting
const (
	// ProgressLogEvery - a progress line is logged for every Nth task index
	ProgressLogEvery = 500

	// DefaultStatusInterval - interval for the periodic status line (10 seconds)
	DefaultStatusInterval = 10 * time.Second

	// ProgressUpdateInterval - refresh rate for the terminal progress bar (250ms)
	ProgressUpdateInterval = 250 * time.Millisecond
)

// Sidecar metadata
const (
	// SidecarExtension - suffix of per-file metadata companions
	SidecarExtension = ".meta"

	// MaxSidecarSize - sidecar files larger than this are rejected (4 MB)
	MaxSidecarSize = 4 * 1024 * 1024
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPRequestTimeout - upper bound for a single upload attempt (5 minutes)
	HTTPRequestTimeout = 5 * time.Minute

	// HTTPResponseBodyLimit - bytes of a failed response body kept for diagnostics
	HTTPResponseBodyLimit = 512
)
