package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls  []string
	steps  int
	forced int
	upErr  error
	closed bool
}

func (f *fakeMigrator) Up() error                    { f.calls = append(f.calls, "up"); return f.upErr }
func (f *fakeMigrator) Down() error                  { f.calls = append(f.calls, "down"); return nil }
func (f *fakeMigrator) Steps(n int) error            { f.steps = n; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return 1, false, nil }
func (f *fakeMigrator) Force(v int) error            { f.forced = v; return nil }
func (f *fakeMigrator) Close() error                 { f.closed = true; return nil }

func execute(t *testing.T, fake *fakeMigrator, args ...string) (string, string, error) {
	t.Helper()
	var dsn string
	cmd := newRootCommand(func(d string) (migrator, error) {
		dsn = d
		return fake, nil
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), dsn, err
}

func TestUpToleratesNoChange(t *testing.T) {
	fake := &fakeMigrator{upErr: migrate.ErrNoChange}

	out, _, err := execute(t, fake, "up")
	require.NoError(t, err)
	assert.Equal(t, []string{"up"}, fake.calls)
	assert.Contains(t, out, "migrations applied")
	assert.True(t, fake.closed)
}

func TestUpFailure(t *testing.T) {
	fake := &fakeMigrator{upErr: errors.New("dirty database")}

	_, _, err := execute(t, fake, "up")
	assert.ErrorContains(t, err, "dirty database")
}

func TestDSNResolution(t *testing.T) {
	_, dsn, err := execute(t, &fakeMigrator{}, "version")
	require.NoError(t, err)
	assert.Equal(t, defaultDSN, dsn)

	t.Setenv(envDSN, "postgres://env")
	_, dsn, err = execute(t, &fakeMigrator{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", dsn)

	_, dsn, err = execute(t, &fakeMigrator{}, "version", "--dsn", "postgres://flag")
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag", dsn)
}

func TestIntegerCommands(t *testing.T) {
	fake := &fakeMigrator{}

	_, _, err := execute(t, fake, "steps", "-1")
	require.NoError(t, err)
	assert.Equal(t, -1, fake.steps)

	_, _, err = execute(t, fake, "force", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, fake.forced)

	_, _, err = execute(t, fake, "steps", "many")
	assert.ErrorContains(t, err, "invalid integer")

	_, _, err = execute(t, fake, "steps", "0")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "create_issuances", name)
}
