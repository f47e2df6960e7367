package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	ID uuid.UUID
}

func (p *product) EntityID() uuid.UUID { return p.ID }

func TestNormalise(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	assert.Equal(t, "null", normalise(nil))
	assert.Equal(t, "abc", normalise("abc"))
	assert.Equal(t, id.String(), normalise(id))
	assert.Equal(t, id.String(), normalise(&product{ID: id}))
	assert.Equal(t, "0.1", normalise(0.1))
	assert.Equal(t, "1.5", normalise(float32(1.5)))
	assert.Equal(t, "1000000000000000000000", normalise(1e21))
	assert.Equal(t, "-7", normalise(-7))
	assert.Equal(t, "true", normalise(true))
	assert.Equal(t, "", normalise([]uuid.UUID{}))
}

func TestIdsHashIsOrderIndependent(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	h1 := normalise([]uuid.UUID{a, b, c})
	h2 := normalise([]uuid.UUID{c, a, b})
	assert.NotEmpty(t, h1)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, normalise([]uuid.UUID{a, b}))

	// entities hash like their ids
	assert.Equal(t, h1, normalise([]Entity{&product{ID: b}, &product{ID: c}, &product{ID: a}}))
	assert.Equal(t, h1, normalise([]*product{{ID: c}, {ID: b}, {ID: a}}))
}

func TestPrepare(t *testing.T) {
	b := NewKeyBuilder()
	id := uuid.New()
	tmpl := CacheKey{Key: "customer.{0}.roles.{1}", Prefixes: []string{"customer.{0}."}, CacheTime: 7}

	k, err := b.Prepare(tmpl, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "customer."+id.String()+".roles.null", k.Key)
	assert.Equal(t, []string{"customer." + id.String() + "."}, k.Prefixes)
	assert.Equal(t, uint64(7), k.CacheTime)

	k, err = b.PrepareForDefault(tmpl, id, nil)
	require.NoError(t, err)
	assert.Equal(t, b.DefaultCacheTime, k.CacheTime)

	k, err = b.PrepareForShortTerm(tmpl, id, nil)
	require.NoError(t, err)
	assert.Equal(t, b.ShortTermCacheTime, k.CacheTime)

	_, err = b.Prepare(tmpl, id)
	assert.ErrorIs(t, err, ErrInvalidPlaceholder)
}

func TestPreparePrefix(t *testing.T) {
	b := NewKeyBuilder()

	p, err := b.PreparePrefix("price.{0}.", 9.99)
	require.NoError(t, err)
	assert.Equal(t, "price.9.99.", p)

	p, err = b.PreparePrefix("price.")
	require.NoError(t, err)
	assert.Equal(t, "price.", p)
}
