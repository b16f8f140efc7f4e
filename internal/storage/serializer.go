package storage

import (
	"encoding/json"

	"github.com/LavishGent/routegov/internal/types"
)

// JSONSerializer is the encoding of every persisted document: the usage
// log, per-user counters and memberships.
type JSONSerializer struct{}

func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (*JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes into dest, which must be a pointer.
func (*JSONSerializer) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

var _ types.Serializer = (*JSONSerializer)(nil)
