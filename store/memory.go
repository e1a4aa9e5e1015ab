package store

import (
	"context"
	"strings"
	"sync"

	"github.com/farmlink/authcore"
)

// Memory is a process-local CredentialStore safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	principals map[string]authcore.Principal
	byEmail    map[string]string
	creds      map[string]authcore.Credential
}

func NewMemory() *Memory {
	return &Memory{
		principals: make(map[string]authcore.Principal),
		byEmail:    make(map[string]string),
		creds:      make(map[string]authcore.Credential),
	}
}

func (m *Memory) FindBySubjectID(_ context.Context, principalID string) (*authcore.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.creds[principalID]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*authcore.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[emailKey(email)]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	p := m.principals[id]
	return &p, nil
}

func (m *Memory) FindPrincipal(_ context.Context, principalID string) (*authcore.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.principals[principalID]
	if !ok {
		return nil, authcore.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) CreatePrincipal(_ context.Context, p authcore.Principal, c authcore.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := emailKey(p.Email)
	if _, taken := m.byEmail[key]; taken {
		return authcore.ErrAccountExists
	}
	if _, taken := m.principals[p.ID]; taken {
		return authcore.ErrAccountExists
	}

	c.PrincipalID = p.ID
	m.principals[p.ID] = p
	m.byEmail[key] = p.ID
	m.creds[p.ID] = c
	return nil
}

func (m *Memory) Upsert(_ context.Context, c authcore.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.principals[c.PrincipalID]; !ok {
		return authcore.ErrNotFound
	}
	m.creds[c.PrincipalID] = c
	return nil
}

// Len returns the number of stored principals.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.principals)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
