package wordtable

import "sync"

// Keys is a registry of global key listeners. A listener lives from
// Subscribe until its release func runs; releasing twice is harmless.
type Keys struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]keySub
}

type keySub struct {
	id int
	fn func()
}

// NewKeys returns an empty registry.
func NewKeys() *Keys {
	return &Keys{subs: make(map[string][]keySub)}
}

// Subscribe registers fn for key and returns the func that removes it.
func (k *Keys) Subscribe(key string, fn func()) (release func()) {
	k.mu.Lock()
	k.nextID++
	id := k.nextID
	k.subs[key] = append(k.subs[key], keySub{id: id, fn: fn})
	k.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { k.remove(key, id) })
	}
}

func (k *Keys) remove(key string, id int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	subs := k.subs[key]
	for i, s := range subs {
		if s.id == id {
			k.subs[key] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(k.subs[key]) == 0 {
		delete(k.subs, key)
	}
}

// Dispatch runs the most recent listener for key and reports whether one
// existed.
func (k *Keys) Dispatch(key string) bool {
	k.mu.Lock()
	subs := k.subs[key]
	if len(subs) == 0 {
		k.mu.Unlock()
		return false
	}
	fn := subs[len(subs)-1].fn
	k.mu.Unlock()
	fn()
	return true
}

// Len returns the number of listeners registered for key.
func (k *Keys) Len(key string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.subs[key])
}
