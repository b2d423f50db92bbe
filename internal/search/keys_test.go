package search

import (
	"errors"
	"fmt"
	"testing"

	"github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	keys      []meilisearch.Key
	created   int
	deleted   []string
	listErr   error
	createErr error
}

func (f *fakeRegistry) GetKeys(*meilisearch.KeysQuery) (*meilisearch.KeysResults, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &meilisearch.KeysResults{Results: f.keys}, nil
}

func (f *fakeRegistry) CreateKey(request *meilisearch.Key) (*meilisearch.Key, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	key := meilisearch.Key{
		Key:         fmt.Sprintf("generated-%d", f.created),
		UID:         fmt.Sprintf("uid-%d", f.created),
		Description: request.Description,
		Actions:     request.Actions,
		Indexes:     request.Indexes,
	}
	f.keys = append(f.keys, key)
	return &key, nil
}

func (f *fakeRegistry) DeleteKey(keyOrUID string) (bool, error) {
	f.deleted = append(f.deleted, keyOrUID)
	return true, nil
}

const testLabel = "searchsync search-only key"

func registeredKey(value string) meilisearch.Key {
	return meilisearch.Key{
		Key:         value,
		UID:         "uid-" + value,
		Description: testLabel,
		Actions:     []string{"search", "documents.get", "indexes.get", "stats.get"},
		Indexes:     []string{"*"},
	}
}

func TestEnsureKeepsValidConfiguredKey(t *testing.T) {
	registry := &fakeRegistry{keys: []meilisearch.Key{registeredKey("configured")}}
	km := newKeyManagerForRegistry(registry, testLabel, "configured", nil)

	key, err := km.Ensure()
	require.NoError(t, err)

	assert.Equal(t, "configured", key)
	assert.Equal(t, KeyValid, km.State())
	assert.Zero(t, registry.created)
}

func TestEnsureAdoptsExistingKeyByLabel(t *testing.T) {
	registry := &fakeRegistry{keys: []meilisearch.Key{registeredKey("already-there")}}

	var persisted string
	km := newKeyManagerForRegistry(registry, testLabel, "", func(k string) error {
		persisted = k
		return nil
	})

	key, err := km.Ensure()
	require.NoError(t, err)

	assert.Equal(t, "already-there", key)
	assert.Equal(t, "already-there", persisted)
	assert.Zero(t, registry.created, "a matching registered key must be reused, not duplicated")
}

func TestEnsureCreatesKeyWhenNoneExists(t *testing.T) {
	registry := &fakeRegistry{}

	var persisted string
	km := newKeyManagerForRegistry(registry, testLabel, "", func(k string) error {
		persisted = k
		return nil
	})

	key, err := km.Ensure()
	require.NoError(t, err)

	assert.Equal(t, "generated-1", key)
	assert.Equal(t, "generated-1", persisted)
	assert.Equal(t, 1, registry.created)
	assert.Equal(t, KeyValid, km.State())
}

func TestEnsureTwiceReturnsSameKey(t *testing.T) {
	registry := &fakeRegistry{}
	km := newKeyManagerForRegistry(registry, testLabel, "", nil)

	first, err := km.Ensure()
	require.NoError(t, err)
	second, err := km.Ensure()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, registry.created, "repeated Ensure must not mint duplicate keys")
}

func TestEnsureReplacesUnregisteredConfiguredKey(t *testing.T) {
	registry := &fakeRegistry{keys: []meilisearch.Key{registeredKey("real")}}
	km := newKeyManagerForRegistry(registry, testLabel, "stale-from-env", nil)

	key, err := km.Ensure()
	require.NoError(t, err)

	assert.Equal(t, "real", key, "a registered key under the label wins over the stale configured one")
	assert.Zero(t, registry.created)
}

func TestEnsurePersistFailureIsNonFatal(t *testing.T) {
	registry := &fakeRegistry{}
	km := newKeyManagerForRegistry(registry, testLabel, "", func(string) error {
		return errors.New("disk full")
	})

	key, err := km.Ensure()
	require.NoError(t, err)
	assert.Equal(t, "generated-1", key)
	assert.Equal(t, KeyValid, km.State())
}

func TestEnsureRegistryErrorSurfaces(t *testing.T) {
	registry := &fakeRegistry{listErr: errors.New("engine down")}
	km := newKeyManagerForRegistry(registry, testLabel, "", nil)

	_, err := km.Ensure()
	require.Error(t, err)
	assert.NotEqual(t, KeyValid, km.State())
}

func TestVerify(t *testing.T) {
	registry := &fakeRegistry{keys: []meilisearch.Key{
		registeredKey("good"),
		{
			Key:         "weak",
			Description: testLabel,
			Actions:     []string{"search"},
		},
	}}
	km := newKeyManagerForRegistry(registry, testLabel, "", nil)

	tests := []struct {
		name string
		key  string
		want KeyState
	}{
		{"empty key", "", KeyMissing},
		{"registered with all actions", "good", KeyValid},
		{"registered but missing actions", "weak", KeyInvalid},
		{"unknown key", "nobody", KeyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := km.Verify(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestCleanStaleKeys(t *testing.T) {
	registry := &fakeRegistry{keys: []meilisearch.Key{
		registeredKey("current"),
		registeredKey("stale-one"),
		registeredKey("stale-two"),
		{Key: "other-app", UID: "uid-other", Description: "something else", Actions: []string{"*"}},
	}}
	km := newKeyManagerForRegistry(registry, testLabel, "current", nil)

	_, err := km.Ensure()
	require.NoError(t, err)

	deleted, err := km.CleanStaleKeys()
	require.NoError(t, err)

	assert.Equal(t, 2, deleted)
	assert.ElementsMatch(t, []string{"uid-stale-one", "uid-stale-two"}, registry.deleted,
		"only same-label keys other than the current one are removed")
}

func TestCleanStaleKeysRefusesWithoutValidKey(t *testing.T) {
	km := newKeyManagerForRegistry(&fakeRegistry{}, testLabel, "", nil)

	_, err := km.CleanStaleKeys()
	require.Error(t, err)
}

func TestKeyDiagnosticsActionItem(t *testing.T) {
	tests := []struct {
		name     string
		diag     KeyDiagnostics
		wantHint bool
	}{
		{"nothing configured", KeyDiagnostics{}, true},
		{"configured but unregistered", KeyDiagnostics{SearchKeyExists: true}, true},
		{"registered but not working", KeyDiagnostics{SearchKeyExists: true, SearchKeyRegistered: true}, true},
		{"all passing", KeyDiagnostics{SearchKeyExists: true, SearchKeyRegistered: true, SearchKeyWorking: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := tt.diag.ActionItem()
			if tt.wantHint {
				assert.NotEmpty(t, hint)
			} else {
				assert.Empty(t, hint)
			}
		})
	}
}

func TestActionsCover(t *testing.T) {
	assert.True(t, actionsCover([]string{"*"}, requiredKeyActions))
	assert.True(t, actionsCover(createKeyActions, requiredKeyActions))
	assert.False(t, actionsCover([]string{"search"}, requiredKeyActions))
	assert.False(t, actionsCover(nil, requiredKeyActions))
}
