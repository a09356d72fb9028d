package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(t.Context(), "certify:ping", "pong", 0).Err())
	require.True(t, mr.Exists("certify:ping"))
}

func TestConnectRejectsEmptyTargets(t *testing.T) {
	_, err := ConnectRedis("", "certify-api")
	require.Error(t, err)

	_, err = ConnectPostgres("")
	require.Error(t, err)

	_, err = ConnectNATS("", "certify-api")
	require.Error(t, err)
}

func TestConnectRedisBadURL(t *testing.T) {
	_, err := ConnectRedis("not a url", "certify-api")
	require.Error(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, table := range []string{"users", "courses", "course_verifiers", "lessons", "modules", "assignments", "enrollments", "submissions", "certificates", "doubts", "doubt_answers", "verifier_requests"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}
}
