package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src := Source()
	entries, err := fs.ReadDir(src.FS, src.Dir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		switch name := e.Name(); {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestInitialSchemaCascades(t *testing.T) {
	raw, err := fs.ReadFile(Source().FS, "0001_init.up.sql")
	require.NoError(t, err)
	schema := string(raw)
	for _, table := range []string{"users", "persons", "banks", "accounts"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Equal(t, 2, strings.Count(schema, "ON DELETE CASCADE"))
	assert.Contains(t, schema, "UNIQUE (person_id, name)")
}
