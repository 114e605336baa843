package catalog

import _ "embed"

// Bundled DDL assets. These are opaque, versioned SQL blobs: initialiseSQL
// defines every system table, function, and trigger of a current-version
// catalog; firstLastAggSQL is the fallback aggregate definition used when the
// first_last_agg extension is unavailable.

//go:embed sql/initialise.sql
var initialiseSQL string

//go:embed sql/first_last_agg.sql
var firstLastAggSQL string
