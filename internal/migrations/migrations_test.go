package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_toPgx5URL(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "postgres://u:p@localhost:5432/products", want: "pgx5://u:p@localhost:5432/products"},
		{in: "postgresql://u:p@localhost/products?sslmode=disable", want: "pgx5://u:p@localhost/products?sslmode=disable"},
		{in: "pgx5://localhost/products", want: "pgx5://localhost/products"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, toPgx5URL(tc.in))
		})
	}
}

func Test_EmbeddedFiles(t *testing.T) {
	names, err := fs.Glob(files, "*.sql")

	require.NoError(t, err)
	assert.Contains(t, names, "000001_create_products_table.up.sql")
	assert.Contains(t, names, "000001_create_products_table.down.sql")
}
