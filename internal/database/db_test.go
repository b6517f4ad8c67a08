package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsCoverEveryTable(t *testing.T) {
	stmts := Statements()
	require.NotEmpty(t, stmts)

	var tables []string
	for _, s := range stmts {
		assert.NotContains(t, s, ";")
		up := strings.ToUpper(s)
		if strings.HasPrefix(up, "CREATE TABLE IF NOT EXISTS") {
			name := strings.Fields(s)[5]
			tables = append(tables, strings.Trim(name, "`("))
		}
	}
	for _, want := range []string{"users", "refresh_tokens", "billboards", "blocked_dates", "bookings", "admin_users", "admin_invitations", "notifications"} {
		assert.Contains(t, tables, want)
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, s := range Statements() {
		up := strings.ToUpper(s)
		if strings.HasPrefix(up, "CREATE TABLE") {
			assert.Contains(t, up, "IF NOT EXISTS", s[:40])
		}
	}
}
