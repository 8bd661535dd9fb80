package localfs

// WalkOptions configures the behavior of Walk.
type WalkOptions struct {
	// IncludeHidden includes hidden files and directories in the walk.
	// Default is false (hidden items excluded).
	IncludeHidden bool

	// SkipHiddenDirs skips descending into hidden directories entirely.
	// Only meaningful when IncludeHidden is false. When false, hidden
	// directories are traversed and only hidden names are filtered.
	SkipHiddenDirs bool

	// OnError is called for entries below the root that cannot be read.
	// The walk continues after it returns. Errors on the root itself are
	// always returned from Walk.
	OnError func(path string, err error)
}
