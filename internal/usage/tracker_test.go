package usage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kazinest/api/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn))
	return conn
}

func TestIncrementAndCount(t *testing.T) {
	tr := NewTracker(newTestDB(t))

	count, err := tr.Count("u1", "resumes", "downloaded")
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, tr.Increment("u1", "resumes", "downloaded"))
	require.NoError(t, tr.Increment("u1", "resumes", "downloaded"))
	require.NoError(t, tr.Increment("u1", "ai", "generated"))

	count, err = tr.Count("u1", "resumes", "downloaded")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = tr.Count("u1", "ai", "generated")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestActionsCountSeparately(t *testing.T) {
	tr := NewTracker(newTestDB(t))

	require.NoError(t, tr.Increment("u1", "resumes", "downloaded"))
	require.NoError(t, tr.Increment("u1", "resumes", "created"))

	count, err := tr.Count("u1", "resumes", "downloaded")
	require.NoError(t, err)
	require.Equal(t, 1, count, "actions in the same category keep separate counters")

	count, err = tr.Count("u1", "resumes", "created")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCountersRollOverByPeriod(t *testing.T) {
	tr := NewTracker(newTestDB(t))

	tr.now = func() time.Time { return time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC) }
	require.NoError(t, tr.Increment("u1", "resumes", "downloaded"))

	tr.now = func() time.Time { return time.Date(2026, 8, 1, 1, 0, 0, 0, time.UTC) }
	count, err := tr.Count("u1", "resumes", "downloaded")
	require.NoError(t, err)
	require.Zero(t, count, "a new month starts from a fresh counter")
}
