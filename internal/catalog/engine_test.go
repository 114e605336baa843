package catalog

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphmeta/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTargetsCurrentVersion(t *testing.T) {
	e := New(nil, nil, nil, testLogger())
	assert.Equal(t, domain.CurrentVersion, e.TargetVersion())
}

func TestDefaultPaths(t *testing.T) {
	e := New(nil, nil, nil, testLogger())

	// Every known non-current version has a path, and every path ends at the
	// current version with a contiguous step chain.
	for _, v := range []domain.Version{domain.Version08, domain.Version1, domain.Version1_1} {
		if v == domain.CurrentVersion {
			_, ok := e.paths[v]
			assert.False(t, ok, "current version must have no migration path")
			continue
		}
		steps, ok := e.paths[v]
		require.True(t, ok, "missing migration path for %s", v)
		require.NotEmpty(t, steps)

		assert.Equal(t, v, steps[0].From)
		for i := 1; i < len(steps); i++ {
			assert.Equal(t, steps[i-1].To, steps[i].From)
		}
		assert.Equal(t, domain.CurrentVersion, steps[len(steps)-1].To)
	}
}

func TestWithVersionPlan(t *testing.T) {
	plan := map[domain.Version][]Step{
		domain.Version1: {{From: domain.Version1, To: "2"}},
	}
	e := New(nil, nil, nil, testLogger(), WithVersionPlan("2", plan))

	assert.Equal(t, domain.Version("2"), e.TargetVersion())
	assert.Equal(t, plan, e.paths)
}

func TestSystemTablesQuery(t *testing.T) {
	q := systemTablesQuery()

	require.Equal(t, domain.QTBulk, q.Type)
	require.Len(t, q.Bulk, len(registryTables))
	for i, item := range q.Bulk {
		require.Equal(t, domain.QTTrackTable, item.Type)
		require.NotNil(t, item.TrackTable)
		assert.Equal(t, MetadataSchema, item.TrackTable.Table.Schema)
		assert.Equal(t, registryTables[i], item.TrackTable.Table.Name)
	}
}
