package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SOCRATIC_TEST_NEW=from-file\nSOCRATIC_TEST_SET=from-file\n"), 0o600))

	t.Setenv("SOCRATIC_TEST_SET", "from-process")
	t.Setenv("SOCRATIC_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("SOCRATIC_TEST_NEW"))

	require.NoError(t, LoadEnv(path))

	assert.Equal(t, "from-file", os.Getenv("SOCRATIC_TEST_NEW"))
	assert.Equal(t, "from-process", os.Getenv("SOCRATIC_TEST_SET"))
}

func TestLoadEnvMissingFile(t *testing.T) {
	err := LoadEnv(filepath.Join(t.TempDir(), "nope.env"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnvWithFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", ".env"), []byte("SOCRATIC_TEST_FALLBACK=config-dir\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("SOCRATIC_TEST_FALLBACK", "")
	require.NoError(t, os.Unsetenv("SOCRATIC_TEST_FALLBACK"))

	require.NoError(t, LoadEnvWithFallback())
	assert.Equal(t, "config-dir", os.Getenv("SOCRATIC_TEST_FALLBACK"))
}
