package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"modernc.org/sqlite"

	"github.com/alphabot-ai/qaforum/internal/store"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// dialect holds everything that differs between the SQL engines. Queries
// themselves are written in the subset both engines accept. fold wraps a
// column so it compares like store.NormalizeSearch output. migrateOnPool
// runs migrations on the store's own pool; otherwise a short-lived pool is
// opened so the migration driver's connection is released afterwards.
type dialect struct {
	name            string
	normalizeDSN    func(dsn string) (string, error)
	migrationDriver func(db *sql.DB) (database.Driver, error)
	isUnique        func(err error) bool
	isForeignKey    func(err error) bool
	fold            func(column string) string
	maxOpenConns    int
	migrateOnPool   bool
}

// sqliteFold is registered with the SQLite driver because the built-in
// LOWER only folds ASCII letters.
const sqliteFold = "qaforum_fold"

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(sqliteFold, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return store.NormalizeSearch(v), nil
		case []byte:
			return store.NormalizeSearch(string(v)), nil
		default:
			return v, nil
		}
	})
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", sqliteFold, err))
	}
}

var sqliteDialect = dialect{
	name: DriverSQLite,
	normalizeDSN: func(dsn string) (string, error) {
		for _, pragma := range []string{"foreign_keys(1)", "busy_timeout(5000)"} {
			if strings.Contains(dsn, "_pragma="+strings.SplitN(pragma, "(", 2)[0]) {
				continue
			}
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=" + pragma
		}
		return dsn, nil
	},
	migrationDriver: func(db *sql.DB) (database.Driver, error) {
		return migratesqlite.WithInstance(db, &migratesqlite.Config{})
	},
	isUnique: func(err error) bool {
		msg := err.Error()
		return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
	},
	isForeignKey: func(err error) bool {
		return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
	},
	fold: func(column string) string {
		return sqliteFold + "(" + column + ")"
	},
	// SQLite allows one writer; a single connection keeps writes queued
	// instead of failing with SQLITE_BUSY.
	maxOpenConns: 1,
	// A :memory: database exists only on the connection that created it.
	migrateOnPool: true,
}

var mysqlDialect = dialect{
	name: DriverMySQL,
	normalizeDSN: func(dsn string) (string, error) {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", err
		}
		// Migration files hold several statements each.
		cfg.MultiStatements = true
		return cfg.FormatDSN(), nil
	},
	migrationDriver: func(db *sql.DB) (database.Driver, error) {
		return migratemysql.WithInstance(db, &migratemysql.Config{})
	},
	isUnique: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == 1062
	},
	isForeignKey: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == 1452
	},
	fold: func(column string) string {
		return "LOWER(REPLACE(" + column + ", '-', ''))"
	},
}

func dialectFor(driver string) (dialect, bool) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect, true
	case DriverMySQL:
		return mysqlDialect, true
	}
	return dialect{}, false
}
