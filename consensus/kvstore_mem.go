package consensus

import "sync"

// MemKV is an in-memory KVStore, used by tests in place of the
// gosqlite-backed store.
type MemKV struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

// NewMemKV returns an empty store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]map[string][]byte)}
}

func (kv *MemKV) Get(ns, key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[ns][key]
	return v, ok, nil
}

func (kv *MemKV) Put(ns, key string, val []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.data[ns] == nil {
		kv.data[ns] = make(map[string][]byte)
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	kv.data[ns][key] = cp
	return nil
}

func (kv *MemKV) Delete(ns, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data[ns], key)
	return nil
}

func (kv *MemKV) Keys(ns string) ([]string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	keys := make([]string, 0, len(kv.data[ns]))
	for k := range kv.data[ns] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (kv *MemKV) Close() error { return nil }
