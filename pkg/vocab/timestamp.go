package vocab

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DisplayLayout is the layout timestamps are shown in.
const DisplayLayout = "2006-01-02 15:04"

// DefaultZone is the presentation timezone.
const DefaultZone = "Asia/Seoul"

// LoadZone resolves name, falling back to a fixed KST offset when the
// system has no zone database.
func LoadZone(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// FormatTimestamp renders a wire timestamp in loc. Values without an offset
// are taken as UTC, which is what SQLite's CURRENT_TIMESTAMP produces.
// Anything unparseable is shown as received.
func FormatTimestamp(raw string, loc *time.Location) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return raw
	}
	return t.In(loc).Format(DisplayLayout)
}
