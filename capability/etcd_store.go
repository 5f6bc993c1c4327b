package capability

import (
	"context"
	"encoding/json"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

// EtcdStore persists agent capability profiles under a key prefix in
// etcd, generalizing the teacher's lease-based service registry
// (registry.Registry) from service discovery to capability discovery.
type EtcdStore struct {
	client *clientv3.Client
	prefix string
	ttl    time.Duration
}

// NewEtcdStore wraps an existing etcd client. prefix defaults to
// "/cynic/capabilities/" when empty; ttl defaults to 1 hour.
func NewEtcdStore(client *clientv3.Client, prefix string, ttl time.Duration) *EtcdStore {
	if prefix == "" {
		prefix = "/cynic/capabilities/"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &EtcdStore{client: client, prefix: prefix, ttl: ttl}
}

// Put persists a single agent capability record, attached to a lease so
// stale entries expire if never refreshed.
func (s *EtcdStore) Put(name string, c Capability) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(c)
	if err != nil {
		return judgment.NewResultError(judgment.ErrCodePersistence, "capability", "marshal capability").WithCause(err)
	}

	lease, err := s.client.Grant(ctx, int64(s.ttl.Seconds()))
	if err != nil {
		return judgment.NewResultError(judgment.ErrCodePersistence, "capability", "grant lease").WithCause(err).WithRetryable(true)
	}

	_, err = s.client.Put(ctx, s.prefix+name, string(data), clientv3.WithLease(lease.ID))
	if err != nil {
		return judgment.NewResultError(judgment.ErrCodePersistence, "capability", "put capability").WithCause(err).WithRetryable(true)
	}
	return nil
}

// List loads every capability record currently stored under the prefix.
func (s *EtcdStore) List() ([]Capability, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, judgment.NewResultError(judgment.ErrCodePersistence, "capability", "list capabilities").WithCause(err).WithRetryable(true)
	}

	out := make([]Capability, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var c Capability
		if err := json.Unmarshal(kv.Value, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
