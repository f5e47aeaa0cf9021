package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lyleguay/fitlog/internal/diet"
	"github.com/lyleguay/fitlog/internal/store"
)

// useSQLite points the CLI at a fresh SQLite file and returns its path.
func useSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fitlog.db")
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd, closeApp := newRootCmd()
	defer closeApp()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate")
	assert.Contains(t, out, "create-user")
	assert.Contains(t, out, "seed-foods")
}

func TestMigrateIdempotent(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied: 2026-09-01-001-initial-schema.sql")

	out, err = execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending migrations.")
}

func TestCreateUser(t *testing.T) {
	path := useSQLite(t)
	_, err := execute(t, "", "migrate")
	require.NoError(t, err)

	out, err := execute(t, "alice\nalice@example.com\nhunter2\n", "create-user", "--bcrypt-cost", fmt.Sprint(bcrypt.MinCost))
	require.NoError(t, err)
	assert.Contains(t, out, "User created successfully!")
	assert.Contains(t, out, "Username: alice")

	db, err := store.OpenSQLite(context.Background(), path, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer db.Close()
	u, err := db.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("hunter2")))
}

func TestCreateUser_RequiresPassword(t *testing.T) {
	useSQLite(t)
	_, err := execute(t, "", "migrate")
	require.NoError(t, err)

	_, err = execute(t, "bob\nbob@example.com\n\n", "create-user")
	assert.EqualError(t, err, "username and password are required")
}

func TestSeedFoods(t *testing.T) {
	useSQLite(t)
	_, err := execute(t, "", "migrate")
	require.NoError(t, err)

	out, err := execute(t, "", "seed-foods")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("%d catalog food(s) added.", len(diet.DefaultCatalog)))

	out, err = execute(t, "", "seed-foods")
	require.NoError(t, err)
	assert.Contains(t, out, "0 catalog food(s) added.")
}

func TestBadConfig(t *testing.T) {
	t.Setenv("APP_ENV", "nowhere")
	_, err := execute(t, "", "migrate")
	assert.Error(t, err)
}
