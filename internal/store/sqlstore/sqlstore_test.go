package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
	"github.com/alphabot-ai/qaforum/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := Open(DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err, "open store")
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	require.NoError(t, st.Migrate())
	require.NoError(t, st.Migrate())
}

func TestMigrateReleasesConnections(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	require.NoError(t, st.Migrate())
	assert.Zero(t, st.db.Stats().InUse)
}

func TestMySQLMigrateReleasesConnections(t *testing.T) {
	dsn := os.Getenv("QAFORUM_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("QAFORUM_TEST_MYSQL_DSN not set")
	}
	st, err := Open(DriverMySQL, dsn)
	require.NoError(t, err)
	defer st.Close()

	assert.Zero(t, st.db.Stats().InUse)
}

func TestFoldExpressions(t *testing.T) {
	assert.Equal(t, "qaforum_fold(q.title)", sqliteDialect.fold("q.title"))
	assert.Equal(t, "LOWER(REPLACE(q.body, '-', ''))", mysqlDialect.fold("q.body"))
	assert.False(t, mysqlDialect.migrateOnPool)
}

func TestSQLiteFoldFunction(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	var folded string
	require.NoError(t, st.db.QueryRow(`SELECT qaforum_fold(?)`, "ÄRGER mit Wi-Fi").Scan(&folded))
	assert.Equal(t, "ärger mit wifi", folded)

	var null sql.NullString
	require.NoError(t, st.db.QueryRow(`SELECT qaforum_fold(NULL)`).Scan(&null))
	assert.False(t, null.Valid)
}

func TestCreatedAtRoundTrip(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	created := time.Date(2024, 3, 9, 12, 30, 15, 123_000_000, time.UTC)
	u := model.User{Name: "ada", Email: "ada@example.com", PasswordHash: "h", AccessToken: "t", CreatedAt: created}
	uid, err := st.CreateUser(ctx, &u)
	require.NoError(t, err)
	qid, err := st.CreateQuestion(ctx, &model.Question{Title: "when", UserID: uid, CreatedAt: created})
	require.NoError(t, err)

	got, err := st.GetQuestion(ctx, qid)
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt), "got %s", got.CreatedAt)

	user, err := st.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.True(t, created.Equal(user.CreatedAt))
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := Open("postgres", "postgres://localhost")
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestSQLiteDSNPragmas(t *testing.T) {
	dsn, err := sqliteDialect.normalizeDSN("file:x.db")
	require.NoError(t, err)
	assert.Equal(t, "file:x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dsn)

	dsn, err = sqliteDialect.normalizeDSN("file:x.db?mode=memory&_pragma=busy_timeout(100)")
	require.NoError(t, err)
	assert.Equal(t, "file:x.db?mode=memory&_pragma=busy_timeout(100)&_pragma=foreign_keys(1)", dsn)
}

func TestMySQLDSNEnablesMultiStatements(t *testing.T) {
	dsn, err := mysqlDialect.normalizeDSN("qa:secret@tcp(db:3306)/qaforum")
	require.NoError(t, err)
	assert.Contains(t, dsn, "multiStatements=true")

	_, err = mysqlDialect.normalizeDSN("not a dsn")
	assert.Error(t, err)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%wifi%", containsPattern("Wi-Fi"))
	assert.Equal(t, "%100!%%", containsPattern("100%"))
	assert.Equal(t, "%a!_b!!%", containsPattern("a_b!"))
}
