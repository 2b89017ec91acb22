// Package policystore persists named playing policies (trained Q-policies or
// solved strategy charts) and serves them to the advisor.
package policystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"blackjack-lite/agent"
)

// DefaultPolicyName is the policy the advisor consults.
const DefaultPolicyName = "default"

var ErrNotFound = errors.New("policy not found")

type PolicyInfo struct {
	Name      string    `json:"name"`
	Decisions int       `json:"decisions"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Service interface {
	Close() error
	Save(ctx context.Context, name string, policy *agent.TablePolicy) error
	Get(ctx context.Context, name string) (*agent.TablePolicy, error)
	List(ctx context.Context) ([]PolicyInfo, error)
}

type memoryStore struct {
	mu       sync.Mutex
	policies map[string]storedPolicy
}

type storedPolicy struct {
	blob      []byte
	decisions int
	updatedAt time.Time
}

func NewMemoryStore() Service {
	return &memoryStore{policies: make(map[string]storedPolicy)}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Save(_ context.Context, name string, policy *agent.TablePolicy) error {
	name = strings.TrimSpace(name)
	if name == "" || policy == nil {
		return fmt.Errorf("empty policy name or nil policy")
	}
	blob, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[name] = storedPolicy{
		blob:      blob,
		decisions: policy.Len(),
		updatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memoryStore) Get(_ context.Context, name string) (*agent.TablePolicy, error) {
	m.mu.Lock()
	stored, ok := m.policies[name]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var policy agent.TablePolicy
	if err := json.Unmarshal(stored.blob, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (m *memoryStore) List(_ context.Context) ([]PolicyInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PolicyInfo, 0, len(m.policies))
	for name, stored := range m.policies {
		out = append(out, PolicyInfo{Name: name, Decisions: stored.decisions, UpdatedAt: stored.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// NewStoreFromEnv returns a sqlite-backed store when POLICY_SQLITE_PATH is
// set, otherwise memory.
func NewStoreFromEnv() (Service, string, error) {
	if dbPath := strings.TrimSpace(os.Getenv("POLICY_SQLITE_PATH")); dbPath != "" {
		store, err := NewSQLiteStore(dbPath)
		if err != nil {
			return nil, "sqlite", err
		}
		return store, "sqlite", nil
	}
	return NewMemoryStore(), "memory", nil
}

// ImportFromEnv loads the policy JSON named by POLICY_FILE (written by the
// trainer or the solver CLI) and stores it under the default name.
func ImportFromEnv(ctx context.Context, store Service) error {
	path := strings.TrimSpace(os.Getenv("POLICY_FILE"))
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read policy file: %w", err)
	}
	var policy agent.TablePolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if err := store.Save(ctx, DefaultPolicyName, &policy); err != nil {
		return err
	}
	log.Printf("[PolicyStore] imported %s (%d decisions) as %q", path, policy.Len(), DefaultPolicyName)
	return nil
}
