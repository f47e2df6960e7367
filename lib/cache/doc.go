// Package cache implements a cache manager with structured keys on top of a store.IStore.
//
// Keys:
//
//	A CacheKey is a template like "product.{0}.lang.{1}" with a list of prefix templates
//	("product.{0}.") and a lifetime. The KeyBuilder fills in the placeholders with
//	normalised parameters:
//	  - nil becomes "null"
//	  - UUIDs and Entity values become their id
//	  - lists of UUIDs or entities become a hash of the sorted ids, so the order of a
//	    list does not change the key
//	  - floats are formatted without exponent and independent of any locale
//
//	Keys are meant to be hierarchical. Everything below a prefix can be dropped at once
//	with Manager.RemoveByPrefix, which maps to a single prune of the underlying radix tree.
//
// Manager:
//
//	The Manager stores raw byte values (Get, Set, GetOrAdd, GetOrCreate) and typed values
//	through a Serializer (GetAs, SetAs, GetOrCreateAs). All keys are put below a namespace,
//	so Clear never touches other data of the same store. GetOrCreate takes a lock from the
//	lockmgr package, so concurrent misses on the same key compute the value only once.
//
//	The lifetime of an entry (CacheTime) is counted in writes of the store, the logical
//	clock of the db package. A CacheTime of 0 disables caching for the key, Forever keeps
//	the entry until it is removed.
//
// Metrics:
//
//	Hits, misses, sets and removals are counted with VictoriaMetrics counters. Every
//	Manager owns its own metrics.Set. Stats returns a snapshot and WritePrometheus
//	exports them in the Prometheus text format.
//
// Usage Example:
//
//	s := lstore.NewLocalStore(func() db.KVDB { return radix.NewRadixDB(radix.DefaultOptions()) })
//	m := cache.NewManager(s, nil, nil)
//
//	byID := cache.NewCacheKey("product.{0}", "product.")
//	k, _ := m.Builder().PrepareForDefault(byID, productID)
//
//	p, err := cache.GetOrCreateAs(ctx, m, k, func() (Product, error) {
//		return loadProduct(productID)
//	})
//
//	// drop all cached products
//	_, _ = m.RemoveByPrefix("product.")
package cache
