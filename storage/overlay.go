package storage

import "sync"

// Overlay buffers writes and deletes on top of a backing database so a whole
// invocation group can commit or vanish as one unit. Reads consult the buffer
// first and fall through to the backing store.
type Overlay struct {
	mu      sync.Mutex
	backing Database
	writes  map[string][]byte
	deletes map[string]struct{}
}

// NewOverlay wraps the backing database with an empty write buffer.
func NewOverlay(backing Database) *Overlay {
	return &Overlay{
		backing: backing,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

func (o *Overlay) Put(key []byte, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	delete(o.deletes, k)
	o.writes[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mu.Lock()
	k := string(key)
	if _, gone := o.deletes[k]; gone {
		o.mu.Unlock()
		return nil, ErrKeyNotFound
	}
	if value, ok := o.writes[k]; ok {
		o.mu.Unlock()
		return append([]byte(nil), value...), nil
	}
	o.mu.Unlock()
	return o.backing.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	o.mu.Lock()
	k := string(key)
	if _, gone := o.deletes[k]; gone {
		o.mu.Unlock()
		return false, nil
	}
	if _, ok := o.writes[k]; ok {
		o.mu.Unlock()
		return true, nil
	}
	o.mu.Unlock()
	return o.backing.Has(key)
}

func (o *Overlay) Delete(key []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	delete(o.writes, k)
	o.deletes[k] = struct{}{}
	return nil
}

// Close satisfies the Database interface; the backing store stays open.
func (o *Overlay) Close() {}

// Commit flushes the buffered mutations to the backing store and clears the
// buffer.
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for key := range o.deletes {
		if err := o.backing.Delete([]byte(key)); err != nil {
			return err
		}
	}
	for key, value := range o.writes {
		if err := o.backing.Put([]byte(key), value); err != nil {
			return err
		}
	}
	o.writes = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
	return nil
}

// Discard drops every buffered mutation.
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
}
