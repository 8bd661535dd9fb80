package localfs

import "strings"

// IsHiddenName reports whether a file or directory name is dot-prefixed.
// Such names are never posted. "." and ".." are path elements, not hidden
// entries. Platform hidden attributes are not consulted.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
