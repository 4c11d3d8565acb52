package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const injection = "' OR '1'='1"

func Test_Queries(t *testing.T) {
	testCases := []struct {
		name     string
		build    func() (string, []any, error)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "insert",
			build:    func() (string, []any, error) { return insertOrderQuery("alice") },
			wantSQL:  `INSERT INTO "online" ("username") VALUES ($1)`,
			wantArgs: []any{"alice"},
		},
		{
			name:     "delete",
			build:    func() (string, []any, error) { return deleteOrderQuery("alice") },
			wantSQL:  `DELETE FROM "online" WHERE ("username" = $1)`,
			wantArgs: []any{"alice"},
		},
		{
			name:     "list",
			build:    listOrdersQuery,
			wantSQL:  `SELECT "username" FROM "online" ORDER BY "username" ASC`,
			wantArgs: nil,
		},
		{
			name:     "insert keeps metacharacters out of the statement",
			build:    func() (string, []any, error) { return insertOrderQuery(injection) },
			wantSQL:  `INSERT INTO "online" ("username") VALUES ($1)`,
			wantArgs: []any{injection},
		},
		{
			name:     "delete keeps metacharacters out of the statement",
			build:    func() (string, []any, error) { return deleteOrderQuery(injection) },
			wantSQL:  `DELETE FROM "online" WHERE ("username" = $1)`,
			wantArgs: []any{injection},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			sql, args, err := tc.build()
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			assert.ElementsMatch(t, tc.wantArgs, args)
			assert.NotContains(t, sql, "'")
		})
	}
}
