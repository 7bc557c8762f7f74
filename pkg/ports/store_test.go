package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
)

// mockStore is a map-backed WorkspaceStore used to exercise the contract itself.
type mockStore struct {
	mu   sync.Mutex
	data map[string]domain.Snapshot
}

func (m *mockStore) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *snap
	copied.Graph = snap.Graph.Clone()
	copied.Problem = snap.Problem.Clone()
	m.data[id] = copied
	return nil
}

func (m *mockStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.data[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	snap.Graph = snap.Graph.Clone()
	snap.Problem = snap.Problem.Clone()
	return &snap, nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *mockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestWorkspaceStore_Contract(t *testing.T) {
	ports.RunWorkspaceStoreContract(t, &mockStore{data: make(map[string]domain.Snapshot)})
}
