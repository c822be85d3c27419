package credentialstore

import (
	"context"
	"time"

	"github.com/Amund211/videofeed/internal/expiry"
	"github.com/jellydator/ttlcache/v3"
)

type MemoryStore struct {
	credentials *ttlcache.Cache[string, string]
}

// NewMemoryStore creates a process local store. Credentials expire after ttl, or never if ttl is 0.
//
// Call stop to end the expiry loop.
func NewMemoryStore(ttl time.Duration) (store *MemoryStore, stop func()) {
	credentials := ttlcache.New(
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	store = &MemoryStore{credentials: credentials}
	if ttl == 0 {
		return store, func() {}
	}

	return store, expiry.StartLoop(credentials)
}

func (m *MemoryStore) GetCredential(ctx context.Context, name string) (string, bool, error) {
	item := m.credentials.Get(name)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (m *MemoryStore) SetCredential(ctx context.Context, name string, value string) error {
	m.credentials.Set(name, value, ttlcache.DefaultTTL)
	return nil
}

func (m *MemoryStore) DeleteCredential(ctx context.Context, name string) error {
	m.credentials.Delete(name)
	return nil
}

var _ Store = (*MemoryStore)(nil)
