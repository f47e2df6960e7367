package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testValue struct {
	Name  string
	Tags  []string
	Price float64
}

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() Serializer{
	"JSON": NewJSONSerializer,
	"GOB":  NewGOBSerializer,
}

func TestSerializers(t *testing.T) {
	in := testValue{Name: "tea", Tags: []string{"green", "loose"}, Price: 4.5}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()
			b, err := s.Serialize(in)
			require.NoError(t, err)

			var out testValue
			require.NoError(t, s.Deserialize(b, &out))
			assert.Equal(t, in, out)

			assert.Error(t, s.Deserialize([]byte("not valid"), &out))
		})
	}
}
