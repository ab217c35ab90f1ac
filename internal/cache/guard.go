package cache

import "sync"

// guard is a reader/writer lock with an upgradeable read mode.
//
// Plain readers share rw. An upgradeable reader holds intent plus a read
// lock on rw, which excludes writers and other upgradeable readers but not
// plain readers. Writers also take intent first, so an upgradeable reader
// that upgrades cannot be overtaken by another writer between dropping its
// read lock and acquiring the write lock: nothing can change in between.
type guard struct {
	intent sync.Mutex
	rw     sync.RWMutex
}

func (g *guard) RLock()   { g.rw.RLock() }
func (g *guard) RUnlock() { g.rw.RUnlock() }

func (g *guard) Lock() {
	g.intent.Lock()
	g.rw.Lock()
}

func (g *guard) Unlock() {
	g.rw.Unlock()
	g.intent.Unlock()
}

func (g *guard) UpgradeableLock() {
	g.intent.Lock()
	g.rw.RLock()
}

func (g *guard) UpgradeableUnlock() {
	g.rw.RUnlock()
	g.intent.Unlock()
}

// Upgrade turns a held upgradeable read into exclusive access
func (g *guard) Upgrade() {
	g.rw.RUnlock()
	g.rw.Lock()
}

// Downgrade returns from exclusive access to the upgradeable read
func (g *guard) Downgrade() {
	g.rw.Unlock()
	g.rw.RLock()
}
