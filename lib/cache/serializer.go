package cache

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// Serializer converts cached values to and from their stored form
type Serializer interface {
	// Serialize encodes v
	Serialize(v any) ([]byte, error)
	// Deserialize decodes b into the value pointed to by v
	Deserialize(b []byte, v any) error
}

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() Serializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the Serializer interface using json encoding
type jsonSerializerImpl struct {
}

func (j jsonSerializerImpl) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j jsonSerializerImpl) Deserialize(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() Serializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the Serializer interface using gob encoding
type gobSerializerImpl struct {
}

func (g gobSerializerImpl) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, v any) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	return dec.Decode(v)
}
