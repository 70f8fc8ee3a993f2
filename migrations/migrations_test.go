package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	tests := []struct {
		name string
		fsys fs.FS
	}{
		{name: "postgres", fsys: Postgres()},
		{name: "sqlite", fsys: SQLite()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, err := fs.Glob(tt.fsys, "*.up.sql")
			require.NoError(t, err)
			down, err := fs.Glob(tt.fsys, "*.down.sql")
			require.NoError(t, err)

			assert.NotEmpty(t, up)
			assert.Len(t, down, len(up))
		})
	}
}
