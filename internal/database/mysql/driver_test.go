package mysql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/ddrlens/internal/errs"
)

func TestNormalizeDSN(t *testing.T) {
	dsn, err := normalizeDSN("ddr:secret@tcp(db:3306)/ddr?multiStatements=true&interpolateParams=true")
	require.NoError(t, err)

	c, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.False(t, c.MultiStatements)
	assert.False(t, c.InterpolateParams)
	assert.Equal(t, "'STRICT_ALL_TABLES'", c.Params["sql_mode"])
	assert.Equal(t, "ddr", c.DBName)

	_, err = normalizeDSN("not a dsn")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestNormalizeDSN_KeepsSQLMode(t *testing.T) {
	dsn, err := normalizeDSN("ddr@tcp(db:3306)/ddr?sql_mode=ANSI")
	require.NoError(t, err)
	c, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "ANSI", c.Params["sql_mode"])
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"canceled", context.Canceled, errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"access denied", &mysql.MySQLError{Number: 1045}, errs.ErrKindPermissionDenied},
		{"unknown database", &mysql.MySQLError{Number: 1049}, errs.ErrKindConnectionFailed},
		{"lock wait", &mysql.MySQLError{Number: 1205}, errs.ErrKindTimeout},
		{"syntax", &mysql.MySQLError{Number: 1064}, errs.ErrKindQueryFailed},
		{"already classified", errs.New(errs.ErrKindInvalidInput, "bad"), errs.ErrKindInvalidInput},
		{"transport", mysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapError(tt.err, "op").Kind)
		})
	}
}
