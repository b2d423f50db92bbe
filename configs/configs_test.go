package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSearchKeyCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, SaveSearchKey(path, "abc123"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MEILISEARCH_SEARCH_KEY=abc123\n", string(data))
}

func TestSaveSearchKeyRewritesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	existing := "MONGODB_URI=mongodb://localhost:27017\n" +
		"MEILISEARCH_SEARCH_KEY=oldkey\n" +
		"SERVER_PORT=9090\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o600))

	require.NoError(t, SaveSearchKey(path, "newkey"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MONGODB_URI=mongodb://localhost:27017\n"+
		"MEILISEARCH_SEARCH_KEY=newkey\n"+
		"SERVER_PORT=9090\n", string(data))
}

func TestSaveSearchKeyAppendsWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9090\n"), 0o600))

	require.NoError(t, SaveSearchKey(path, "fresh"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SERVER_PORT=9090\nMEILISEARCH_SEARCH_KEY=fresh\n", string(data))
}

func TestSaveSearchKeyAppendsWithoutTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9090"), 0o600))

	require.NoError(t, SaveSearchKey(path, "fresh"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SERVER_PORT=9090\nMEILISEARCH_SEARCH_KEY=fresh\n", string(data))
}

func TestSaveSearchKeyTwiceKeepsSingleLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, SaveSearchKey(path, "first"))
	require.NoError(t, SaveSearchKey(path, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MEILISEARCH_SEARCH_KEY=second\n", string(data))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CONFIGS_TEST_STR", "hello")
	t.Setenv("CONFIGS_TEST_INT", "42")
	t.Setenv("CONFIGS_TEST_BAD_INT", "nope")
	t.Setenv("CONFIGS_TEST_FLOAT", "2.5")

	assert.Equal(t, "hello", getEnv("CONFIGS_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("CONFIGS_TEST_MISSING", "fallback"))
	assert.Equal(t, 42, getEnvInt("CONFIGS_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("CONFIGS_TEST_BAD_INT", 7))
	assert.Equal(t, 2.5, getEnvFloat("CONFIGS_TEST_FLOAT", 1.0))
	assert.Equal(t, 1.0, getEnvFloat("CONFIGS_TEST_MISSING", 1.0))
}
