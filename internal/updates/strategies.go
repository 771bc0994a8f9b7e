package updates

import (
	"fmt"
	"regexp"

	version "github.com/hashicorp/go-version"
)

// filenameVersion matches a dotted version embedded in an artifact filename,
// e.g. "Setup-7.4.1-x64.msi".
var filenameVersion = regexp.MustCompile(`\d+(?:\.\d+)+`)

// Strategy is one way of reading a version off a release record. Release
// feeds are inconsistent about where the version lives, so extraction is an
// ordered list of these rather than inline branching; the ordering is data
// and testable without any network call.
type Strategy struct {
	Name    string
	Extract func(Release) string
}

// DefaultStrategies is the extraction order applied to feed entries: the
// explicit version field, then the display field, then a regex over the
// artifact filename.
var DefaultStrategies = []Strategy{
	{
		Name:    "version-field",
		Extract: func(r Release) string { return r.Version },
	},
	{
		Name:    "display-version-field",
		Extract: func(r Release) string { return r.DisplayVersion },
	},
	{
		Name:    "filename-regex",
		Extract: func(r Release) string { return filenameVersion.FindString(r.FileName) },
	},
}

// ExtractVersion applies the strategies in order and parses the first
// non-empty hit. A hit that fails to parse does not fall through: the feed
// said this is the version, so a parse failure is reported as such.
func ExtractVersion(r Release, strategies []Strategy) (*version.Version, string, error) {
	for _, s := range strategies {
		raw := s.Extract(r)
		if raw == "" {
			continue
		}
		v, err := version.NewVersion(raw)
		if err != nil {
			return nil, s.Name, fmt.Errorf("strategy %s produced unparseable version %q: %w", s.Name, raw, err)
		}
		return v, s.Name, nil
	}
	return nil, "", fmt.Errorf("no strategy produced a version for %s", r.Product)
}
