package lstore

import (
	"sync/atomic"

	"github.com/ValentinKolb/pKV/lib/db"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

type storeImpl struct {
	db    db.KVDB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance on top of the database created by factory.
// This store implementation is not distributed and only works in a single process.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db: factory(),
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// unsupported builds the error for an operation the database can not perform
func unsupported(op string) error {
	return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return unsupported("Set")
	}
	return store.WrapError(s.db.Set(key, value, s.incAndGetIndex()))
}

func (s *storeImpl) SetE(key string, value []byte, expireIn, deleteIn uint64) error {
	if !s.db.SupportsFeature(db.FeatureSetE) {
		return unsupported("SetE")
	}
	return store.WrapError(s.db.SetE(key, value, s.incAndGetIndex(), expireIn, deleteIn))
}

func (s *storeImpl) SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) error {
	if !s.db.SupportsFeature(db.FeatureSetEIfUnset) {
		return unsupported("SetEIfUnset")
	}
	return store.WrapError(s.db.SetEIfUnset(key, value, s.incAndGetIndex(), expireIn, deleteIn))
}

func (s *storeImpl) Expire(key string) error {
	if !s.db.SupportsFeature(db.FeatureExpire) {
		return unsupported("Expire")
	}
	return store.WrapError(s.db.Expire(key, s.incAndGetIndex()))
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return unsupported("Delete")
	}
	return store.WrapError(s.db.Delete(key, s.incAndGetIndex()))
}

func (s *storeImpl) DeletePrefix(prefix string) (int, error) {
	if !s.db.SupportsFeature(db.FeatureDeletePrefix) {
		return 0, unsupported("DeletePrefix")
	}
	n, err := s.db.DeletePrefix(prefix, s.incAndGetIndex())
	if err != nil {
		return 0, store.WrapError(err)
	}
	Logger.Debugf("removed %d entries below %q", n, prefix)
	return n, nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, unsupported("Get")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, unsupported("Has")
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) Scan(prefix string, limit int) ([]store.KeyValue, error) {
	if !s.db.SupportsFeature(db.FeatureScan) {
		return nil, unsupported("Scan")
	}

	var out []store.KeyValue
	for k, v := range s.db.Scan(prefix) {
		out = append(out, store.KeyValue{Key: k, Value: v})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

func (s *storeImpl) Close() error {
	return store.WrapError(s.db.Close())
}
