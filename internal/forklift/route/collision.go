package route

import (
	"path/filepath"
	"sort"

	"github.com/dart-platform/dart-cli/internal/models"
)

// Collision is a group of tasks that share a base name and would land on
// the same destination path.
type Collision struct {
	Name    string
	Indices []int
}

// FindCollisions groups tasks by base name and returns the groups with more
// than one member, sorted by name, plus the number of tasks involved.
//
// Example: "in/a/report.json" and "in/b/report.json" both route to
// "<dest>/report.json"; whichever finishes last wins.
func FindCollisions(tasks []models.UploadTask) ([]Collision, int) {
	if len(tasks) == 0 {
		return nil, 0
	}

	byName := make(map[string][]int)
	for _, t := range tasks {
		name := filepath.Base(t.FilePath)
		byName[name] = append(byName[name], t.Index)
	}

	var collisions []Collision
	count := 0
	for name, indices := range byName {
		if len(indices) <= 1 {
			continue
		}
		count += len(indices)
		collisions = append(collisions, Collision{Name: name, Indices: indices})
	}

	sort.Slice(collisions, func(i, j int) bool { return collisions[i].Name < collisions[j].Name })
	return collisions, count
}
