package store

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

const (
	TableName      = "online"
	columnUsername = "username"
)

var dialect = goqu.Dialect("postgres")

// Statements are always built in prepared mode: values travel as bind
// arguments and never become part of the SQL text.

func insertOrderQuery(username string) (string, []any, error) {
	return dialect.Insert(TableName).
		Rows(goqu.Record{columnUsername: username}).
		Prepared(true).
		ToSQL()
}

func deleteOrderQuery(username string) (string, []any, error) {
	return dialect.Delete(TableName).
		Where(goqu.C(columnUsername).Eq(username)).
		Prepared(true).
		ToSQL()
}

func listOrdersQuery() (string, []any, error) {
	return dialect.From(TableName).
		Select(columnUsername).
		Order(goqu.C(columnUsername).Asc()).
		Prepared(true).
		ToSQL()
}
