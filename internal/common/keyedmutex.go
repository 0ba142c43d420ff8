package common

import "sync"

// KeyedMutex — мьютекс на каждого пользователя.
// Разные пользователи обрабатываются параллельно, действия одного — строго по очереди.
// Записи удаляются, когда их больше никто не держит.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedEntry)}
}

// Lock захватывает мьютекс ключа и возвращает функцию освобождения.
//
//	unlock := km.Lock(userID)
//	defer unlock()
func (km *KeyedMutex) Lock(key int64) func() {
	km.mu.Lock()
	e, ok := km.locks[key]
	if !ok {
		e = &keyedEntry{}
		km.locks[key] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			km.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(km.locks, key)
			}
			km.mu.Unlock()
		})
	}
}

// size — количество живых записей (для тестов).
func (km *KeyedMutex) size() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.locks)
}
