package lockmgr

import (
	"bytes"

	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("lockmgr")

// KeyPrefix is put in front of every lock key, so locks live in their own scope of the store
const KeyPrefix = "lock:"

type lockMgrImpl struct {
	store store.IStore
}

func NewLockManager(store store.IStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string, timeout uint64) (bool, []byte, error) {
	ownerID := generateOwnerID()
	lockKey := KeyPrefix + key

	// Try to acquire the lock (by setting the value only if it doesn't exist - atomic CAS operation)
	if err := lm.store.SetEIfUnset(lockKey, ownerID, 0, timeout); err != nil {
		Logger.Warningf("could not set lock %q: %v", key, err)
		return false, nil, err
	}

	// Check if the lock was acquired
	value, found, err := lm.store.Get(lockKey)
	if err != nil {
		return false, nil, err
	}

	// Return true if lock was acquired BY US
	if found && bytes.Equal(value, ownerID) {
		Logger.Debugf("lock %q acquired by %s", key, ownerID)
		return true, ownerID, nil
	}
	// Return false if lock is held BY SOMEONE ELSE
	return false, nil, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	lockKey := KeyPrefix + key

	// Check if the lock exists
	value, ok, err := lm.store.Get(lockKey)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock
	err = lm.store.Delete(lockKey)
	return err == nil, err
}

func (lm *lockMgrImpl) ReleaseAll() (int, error) {
	return lm.store.DeletePrefix(KeyPrefix)
}
