package graph

import (
	"sort"

	version "github.com/hashicorp/go-version"

	api "github.com/m365ops/m365ctl/api/v1alpha1"
)

// DuplicateSet groups app records sharing a display name. Keep is the record
// with the highest parseable version; Stale holds everything else in the
// order the service returned it.
type DuplicateSet struct {
	DisplayName string
	Keep        api.ManagedApp
	Stale       []api.ManagedApp
}

// FindDuplicates groups the given app records by display name and picks the
// winner per group. Records whose version does not parse sort below any
// parseable version; when versions tie the record seen first wins, so
// re-running on an already-deduplicated tenant is a no-op.
func FindDuplicates(apps []api.ManagedApp) []DuplicateSet {
	byName := map[string][]api.ManagedApp{}
	for _, app := range apps {
		byName[app.DisplayName] = append(byName[app.DisplayName], app)
	}

	var sets []DuplicateSet
	for name, group := range byName {
		if len(group) < 2 {
			continue
		}
		keep := 0
		for i := 1; i < len(group); i++ {
			if newerVersion(group[i].Version, group[keep].Version) {
				keep = i
			}
		}
		set := DuplicateSet{DisplayName: name, Keep: group[keep]}
		for i, app := range group {
			if i != keep {
				set.Stale = append(set.Stale, app)
			}
		}
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].DisplayName < sets[j].DisplayName })
	return sets
}

// newerVersion reports whether a is strictly newer than b. Unparseable
// versions compare lowest.
func newerVersion(a, b string) bool {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	default:
		return va.GreaterThan(vb)
	}
}
