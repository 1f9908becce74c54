// Package snapshot encodes, decodes, and deep-clones captured property
// maps using msgpack.
//
// Only property values travel through the codec: listener tables hold
// function values and are transplanted by reference, never serialized.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidPayload means a snapshot payload could not be decoded.
var ErrInvalidPayload = errors.New("snapshot: invalid payload")

// EncodeProps serializes a property map.
func EncodeProps(props map[string]any) ([]byte, error) {
	data, err := msgpack.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode props: %w", err)
	}
	return data, nil
}

// DecodeProps deserializes a property map produced by EncodeProps.
func DecodeProps(data []byte) (map[string]any, error) {
	var props map[string]any
	if err := msgpack.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return props, nil
}

// CloneProps deep-copies a property map via a msgpack round-trip, so a
// snapshot can be applied repeatedly without the applications sharing
// mutable values. Nil maps clone to nil.
func CloneProps(props map[string]any) (map[string]any, error) {
	if props == nil {
		return nil, nil
	}
	data, err := EncodeProps(props)
	if err != nil {
		return nil, err
	}
	return DecodeProps(data)
}
