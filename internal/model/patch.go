package model

import "encoding/json"

// Patch is a tri-state field used by partial updates: absent (Set is
// false), explicitly null (Set and Null are true) or present with a
// Value.  encoding/json leaves absent keys untouched, so a zero Patch
// means "do not modify".
type Patch[T any] struct {
    Set   bool
    Null  bool
    Value T
}

// Some returns a present Patch holding v.
func Some[T any](v T) Patch[T] {
    return Patch[T]{Set: true, Value: v}
}

// Present reports whether the patch carries a non-null value.
func (p Patch[T]) Present() bool { return p.Set && !p.Null }

// UnmarshalJSON marks the field as set and decodes the value.  JSON null
// is recorded in Null rather than decoded.
func (p *Patch[T]) UnmarshalJSON(b []byte) error {
    p.Set = true
    if string(b) == "null" {
        p.Null = true
        var zero T
        p.Value = zero
        return nil
    }
    p.Null = false
    return json.Unmarshal(b, &p.Value)
}

// MarshalJSON renders the value, or null when the patch is absent or null.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
    if !p.Present() {
        return []byte("null"), nil
    }
    return json.Marshal(p.Value)
}
