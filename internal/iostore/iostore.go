// Package iostore persists the signed-in session and the operation run log.
package iostore

import (
	"sync"

	"github.com/chemflow/equipctl/internal/contract"
)

// StoreManager owns the session store and the run store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	session      contract.SessionStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetSessionStore returns the session store.
func (mgr *StoreManager) GetSessionStore() contract.SessionStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.session
}

// GetRunStore returns the run store.
func (mgr *StoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
