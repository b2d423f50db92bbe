package search

import (
	"fmt"
	"sync"

	"github.com/meilisearch/meilisearch-go"
	log "github.com/sirupsen/logrus"
)

// KeyState tracks where the restricted credential is in its lifecycle.
type KeyState string

const (
	// KeyMissing means no restricted key is configured at all.
	KeyMissing KeyState = "missing"

	// KeyUnverified means a key string is configured but has not been
	// confirmed against the engine's key registry.
	KeyUnverified KeyState = "unverified"

	// KeyValid means the key is registered with the required action set.
	KeyValid KeyState = "valid"

	// KeyInvalid means the engine does not recognize the key or it lacks
	// required actions.
	KeyInvalid KeyState = "invalid"
)

// requiredKeyActions must all be granted for a key to count as valid.
var requiredKeyActions = []string{"search", "documents.get", "indexes.get"}

// createKeyActions is the action set new keys are created with.
var createKeyActions = []string{"search", "documents.get", "indexes.get", "stats.get"}

// keyRegistry is the slice of the admin API the key manager needs.
// *meilisearch.Client satisfies it.
type keyRegistry interface {
	GetKeys(param *meilisearch.KeysQuery) (*meilisearch.KeysResults, error)
	CreateKey(request *meilisearch.Key) (*meilisearch.Key, error)
	DeleteKey(keyOrUID string) (bool, error)
}

// KeyManager drives the restricted credential's lifecycle: verify the
// configured key, adopt an existing one registered under this
// application's label, or create and persist a fresh one. Ensure never
// deletes or replaces a key it has confirmed valid; the process is never
// left without a working read key by anything Ensure does.
type KeyManager struct {
	registry    keyRegistry
	description string
	persist     func(key string) error

	mu    sync.Mutex
	key   string
	state KeyState
}

// NewKeyManager wires the manager to the admin client's key registry.
// configuredKey may be empty on first start. persist writes a provisioned
// key back to configuration and may be nil.
func NewKeyManager(admin *Client, description, configuredKey string, persist func(key string) error) *KeyManager {
	state := KeyUnverified
	if configuredKey == "" {
		state = KeyMissing
	}
	if persist == nil {
		persist = func(string) error { return nil }
	}
	return &KeyManager{
		registry:    admin.ms,
		description: description,
		persist:     persist,
		key:         configuredKey,
		state:       state,
	}
}

// newKeyManagerForRegistry is the test seam.
func newKeyManagerForRegistry(registry keyRegistry, description, configuredKey string, persist func(key string) error) *KeyManager {
	km := &KeyManager{
		registry:    registry,
		description: description,
		persist:     persist,
		key:         configuredKey,
		state:       KeyUnverified,
	}
	if configuredKey == "" {
		km.state = KeyMissing
	}
	if persist == nil {
		km.persist = func(string) error { return nil }
	}
	return km
}

// Key returns the current restricted key value, which may be empty.
func (km *KeyManager) Key() string {
	km.mu.Lock()
	defer km.mu.Unlock()
	return km.key
}

// State returns the current lifecycle state.
func (km *KeyManager) State() KeyState {
	km.mu.Lock()
	defer km.mu.Unlock()
	return km.state
}

// Verify checks a key value against the engine's registry: the key must
// exist and its action set must cover the required actions. Registry
// errors leave the state undecided and are returned to the caller.
func (km *KeyManager) Verify(key string) (KeyState, error) {
	if key == "" {
		return KeyMissing, nil
	}

	keys, err := km.registry.GetKeys(&meilisearch.KeysQuery{Limit: 1000})
	if err != nil {
		return KeyUnverified, fmt.Errorf("list keys: %w", err)
	}

	for _, k := range keys.Results {
		if k.Key != key {
			continue
		}
		if actionsCover(k.Actions, requiredKeyActions) {
			return KeyValid, nil
		}
		return KeyInvalid, nil
	}
	return KeyInvalid, nil
}

// Ensure makes sure a valid restricted key exists and is persisted,
// creating one only when the configured key is missing or invalid. A key
// registered under the manager's description label is adopted rather than
// duplicated, which keeps repeated Ensure calls idempotent. Stale
// duplicates are never cleaned up here; that is CleanStaleKeys, an
// explicit operator action.
func (km *KeyManager) Ensure() (string, error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	if km.state == KeyValid {
		return km.key, nil
	}

	if km.key != "" {
		state, err := km.Verify(km.key)
		if err != nil {
			return "", err
		}
		if state == KeyValid {
			km.state = KeyValid
			return km.key, nil
		}
		km.state = state
		log.WithField("state", state).Warn("configured search key is not usable; provisioning a replacement")
	}

	keys, err := km.registry.GetKeys(&meilisearch.KeysQuery{Limit: 1000})
	if err != nil {
		return "", fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys.Results {
		if k.Description != km.description {
			continue
		}
		if !actionsCover(k.Actions, requiredKeyActions) {
			continue
		}
		return km.adoptLocked(k.Key, "adopted existing search key")
	}

	created, err := km.registry.CreateKey(&meilisearch.Key{
		Description: km.description,
		Actions:     createKeyActions,
		Indexes:     []string{"*"},
		// Zero ExpiresAt: the key never expires.
	})
	if err != nil {
		return "", fmt.Errorf("create search key: %w", err)
	}
	return km.adoptLocked(created.Key, "created new search key")
}

func (km *KeyManager) adoptLocked(key, msg string) (string, error) {
	km.key = key
	km.state = KeyValid
	if err := km.persist(key); err != nil {
		// The key works for this process even if persistence failed.
		log.WithError(err).Error("failed to persist search key to configuration")
	}
	log.WithField("description", km.description).Info(msg)
	return key, nil
}

// CleanStaleKeys deletes keys registered under the manager's description
// label other than the currently valid one. Operator-invoked maintenance;
// never called from Ensure. Returns the number of keys deleted.
func (km *KeyManager) CleanStaleKeys() (int, error) {
	km.mu.Lock()
	current := km.key
	state := km.state
	km.mu.Unlock()

	if state != KeyValid {
		return 0, fmt.Errorf("refusing to clean keys while the current key is %s", state)
	}

	keys, err := km.registry.GetKeys(&meilisearch.KeysQuery{Limit: 1000})
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}

	deleted := 0
	for _, k := range keys.Results {
		if k.Description != km.description || k.Key == current {
			continue
		}
		if _, err := km.registry.DeleteKey(k.UID); err != nil {
			log.WithError(err).WithField("uid", k.UID).Error("failed to delete stale key")
			continue
		}
		deleted++
	}
	return deleted, nil
}

// KeyDiagnostics reports the three checks the health endpoint exposes.
type KeyDiagnostics struct {
	SearchKeyExists     bool `json:"search_key_exists"`
	SearchKeyRegistered bool `json:"search_key_registered"`
	SearchKeyWorking    bool `json:"search_key_working"`
}

// ActionItem derives a remediation hint from the first failing check, or
// "" when everything passes.
func (d KeyDiagnostics) ActionItem() string {
	switch {
	case !d.SearchKeyExists:
		return "No search key is configured. Start the service with a master key so one can be provisioned, or set " +
			"MEILISEARCH_SEARCH_KEY."
	case !d.SearchKeyRegistered:
		return "The configured search key is not registered with the search engine. Run the diagnose command or " +
			"restart the service to provision a fresh key."
	case !d.SearchKeyWorking:
		return "The search key is registered but requests with it fail. Provision a fresh key via the diagnose command."
	default:
		return ""
	}
}

// Diagnose runs the three key checks. restricted may be nil when no
// restricted client could be constructed.
func (km *KeyManager) Diagnose(restricted *Client) KeyDiagnostics {
	d := KeyDiagnostics{}

	key := km.Key()
	d.SearchKeyExists = key != ""
	if !d.SearchKeyExists {
		return d
	}

	if state, err := km.Verify(key); err == nil && state == KeyValid {
		d.SearchKeyRegistered = true
	}

	if restricted != nil {
		if _, err := restricted.ListIndexes(); err == nil {
			d.SearchKeyWorking = true
		}
	}
	return d
}

func actionsCover(granted, required []string) bool {
	set := make(map[string]bool, len(granted))
	for _, a := range granted {
		set[a] = true
	}
	if set["*"] {
		return true
	}
	for _, a := range required {
		if !set[a] {
			return false
		}
	}
	return true
}
