package domain

import "time"

// Version is an opaque catalog version label drawn from a small, statically
// known set. Comparison is by identity against known labels — labels are never
// parsed numerically, and an unrecognized label is an error, not a sort key.
type Version string

// Known catalog versions, oldest first.
const (
	Version08  Version = "0.8"
	Version1   Version = "1"
	Version1_1 Version = "1.1"
)

// CurrentVersion is the version a freshly initialised or fully migrated
// catalog records.
const CurrentVersion = Version1_1

// knownVersions is the closed set of labels the engine recognises.
var knownVersions = map[Version]struct{}{
	Version08:  {},
	Version1:   {},
	Version1_1: {},
}

// Known reports whether v is one of the recognised version labels.
func (v Version) Known() bool {
	_, ok := knownVersions[v]
	return ok
}

// VersionRecord is the single row of the catalog version table.
type VersionRecord struct {
	Version    Version
	UpgradedOn time.Time
}
