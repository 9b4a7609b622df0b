package database

import (
	"BuzzDaddy/internal/api/config"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteMigrate(t *testing.T) {
	db, err := NewGormDB(&config.DBConfig{DSN: "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"campaigns", "keywords", "post_preferences", "posts", "comments", "activity_logs", "oauth_tokens"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
