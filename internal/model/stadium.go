package model

import (
    "strings"
    "time"
)

// Stadium represents a bookable venue in the `stadiums` table.
// Amenities is stored as a JSON array column and behaves as a set:
// NormalizeAmenities trims, drops empties and de-duplicates it.
type Stadium struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    Location  string    `json:"location"`
    Capacity  int       `json:"capacity"`
    Amenities []string  `json:"amenities"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

// MaxCapacity is the largest capacity the INT UNSIGNED column holds.
const MaxCapacity int64 = 4294967295

// StadiumFilter holds the optional list constraints.  All present
// constraints are ANDed; name and location match case-insensitive
// substrings, capacity bounds are inclusive and amenities must all be
// present on a stadium for it to match.
type StadiumFilter struct {
    Name        string
    Location    string
    MinCapacity *int
    MaxCapacity *int
    Amenities   []string
}

// StadiumPatch is a partial update of a stadium.
type StadiumPatch struct {
    Name      Patch[string]   `json:"name"`
    Location  Patch[string]   `json:"location"`
    Capacity  Patch[int]      `json:"capacity"`
    Amenities Patch[[]string] `json:"amenities"`
}

// NormalizeAmenities returns the amenity tags trimmed, without empty
// entries and without duplicates, keeping first-seen order.  The result
// is never nil so it encodes as a JSON array.
func NormalizeAmenities(in []string) []string {
    out := make([]string, 0, len(in))
    seen := make(map[string]bool, len(in))
    for _, a := range in {
        a = strings.TrimSpace(a)
        if a == "" || seen[a] {
            continue
        }
        seen[a] = true
        out = append(out, a)
    }
    return out
}
