package cache

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const (
	// DefaultCacheTime is the lifetime of entries prepared with PrepareForDefault
	DefaultCacheTime uint64 = 1 << 16
	// ShortTermCacheTime is the lifetime of entries prepared with PrepareForShortTerm
	ShortTermCacheTime uint64 = 1 << 10
)

// Entity is implemented by domain objects that are identified by a UUID.
// Entities (and lists of them) can be used as key parameters.
type Entity interface {
	EntityID() uuid.UUID
}

var entityType = reflect.TypeOf((*Entity)(nil)).Elem()

// KeyBuilder fills in key templates with normalised parameters
type KeyBuilder struct {
	DefaultCacheTime   uint64
	ShortTermCacheTime uint64
}

// NewKeyBuilder returns a builder with the default cache times
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{
		DefaultCacheTime:   DefaultCacheTime,
		ShortTermCacheTime: ShortTermCacheTime,
	}
}

// Prepare fills in the placeholders of key. The cache time of key is kept.
func (b *KeyBuilder) Prepare(key CacheKey, params ...any) (CacheKey, error) {
	return key.Create(b.normaliseAll(params)...)
}

// PrepareForDefault is like Prepare, but sets the default cache time
func (b *KeyBuilder) PrepareForDefault(key CacheKey, params ...any) (CacheKey, error) {
	k, err := b.Prepare(key, params...)
	k.CacheTime = b.DefaultCacheTime
	return k, err
}

// PrepareForShortTerm is like Prepare, but sets the short term cache time
func (b *KeyBuilder) PrepareForShortTerm(key CacheKey, params ...any) (CacheKey, error) {
	k, err := b.Prepare(key, params...)
	k.CacheTime = b.ShortTermCacheTime
	return k, err
}

// PreparePrefix fills in the placeholders of a prefix template
func (b *KeyBuilder) PreparePrefix(prefix string, params ...any) (string, error) {
	if len(params) == 0 {
		return prefix, nil
	}
	args := b.normaliseAll(params)
	str := make([]string, len(args))
	for i, a := range args {
		str[i] = a.(string)
	}
	return format(prefix, str)
}

func (b *KeyBuilder) normaliseAll(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = normalise(p)
	}
	return out
}

// normalise converts a parameter into its string form used in keys
func normalise(p any) string {
	switch v := p.(type) {
	case nil:
		return "null"
	case string:
		return v
	case uuid.UUID:
		return v.String()
	case []uuid.UUID:
		return idsHash(v)
	case []Entity:
		ids := make([]uuid.UUID, len(v))
		for i, e := range v {
			ids[i] = e.EntityID()
		}
		return idsHash(ids)
	case Entity:
		return v.EntityID().String()
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case *big.Float:
		return v.Text('f', -1)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}

	// slices of concrete entity types, e.g. []*Product
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Implements(entityType) {
		ids := make([]uuid.UUID, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e := rv.Index(i).Interface().(Entity)
			ids = append(ids, e.EntityID())
		}
		return idsHash(ids)
	}

	return fmt.Sprint(p)
}

// idsHash returns a hash of the ids that does not depend on their order.
// An empty list hashes to the empty string.
func idsHash(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return ""
	}
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	strs := make([]string, len(sorted))
	for i, id := range sorted {
		strs[i] = id.String()
	}
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(strs, ", ")), 16)
}
