package snapshot

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AllTypes is the canonical filter for "no filter". It cannot collide with
// a kind name because kind names never start with an underscore.
const AllTypes = "__ALL__"

// NormalizeTypes returns the canonical form of a comma-separated kind list:
// pieces trimmed, empty pieces dropped, upper-cased and sorted. Blank input
// and lists with no pieces left map to AllTypes.
func NormalizeTypes(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return AllTypes
	}
	upper := cases.Upper(language.Und)
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, upper.String(p))
	}
	if len(parts) == 0 {
		return AllTypes
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
