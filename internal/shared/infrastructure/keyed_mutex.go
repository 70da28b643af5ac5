package infrastructure

import "sync"

// KeyedMutex sérialise les opérations par clé (un commerçant) sans bloquer les autres clés
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex crée un verrou par clé
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquiert le verrou de key et retourne la fonction de libération
func (km *KeyedMutex) Lock(key string) func() {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &keyedLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		km.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}

// Size retourne le nombre de clés actuellement tenues ou attendues
func (km *KeyedMutex) Size() int {
	km.mu.Lock()
	defer km.mu.Unlock()

	return len(km.locks)
}
