package sqlstore

import (
	"database/sql"
	"sync"

	"github.com/goliatone/go-loadrelay/core"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// SQLiteDriverName is the sqlite driver Open uses. Its connections carry the
// place folding function so origin and destination compare the way
// core.FoldPlace does, including non-ASCII letters.
const SQLiteDriverName = "sqlite3_loadrelay"

const sqliteFoldFunc = "loadrelay_fold"

// postgres btrim with the same set core.FoldPlace trims.
const postgresFoldExpr = "lower(btrim(?TableAlias.?, ' ' || chr(9) || chr(10) || chr(11) || chr(12) || chr(13)))"

var registerSQLiteDriver sync.Once

// RegisterSQLiteDriver registers SQLiteDriverName with database/sql. It is
// safe to call more than once.
func RegisterSQLiteDriver() {
	registerSQLiteDriver.Do(func() {
		sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc(sqliteFoldFunc, core.FoldPlace, true)
			},
		})
	})
}

func placeExpr(db *bun.DB) string {
	if db != nil && db.Dialect().Name() == dialect.PG {
		return postgresFoldExpr
	}
	return sqliteFoldFunc + "(?TableAlias.?)"
}
