package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchDistinguishesAbsentNullAndValue(t *testing.T) {
	var p StadiumPatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Arena","location":null}`), &p))

	assert.True(t, p.Name.Present())
	assert.Equal(t, "Arena", p.Name.Value)

	assert.True(t, p.Location.Set)
	assert.True(t, p.Location.Null)
	assert.False(t, p.Location.Present())

	assert.False(t, p.Capacity.Set)
	assert.False(t, p.Amenities.Set)
}

func TestPatchRejectsWrongType(t *testing.T) {
	var p StadiumPatch
	err := json.Unmarshal([]byte(`{"capacity":"lots"}`), &p)
	assert.Error(t, err)
}

func TestUserViewOmitsHash(t *testing.T) {
	u := User{ID: 7, Username: "sam", Email: "sam@example.com", PasswordHash: "$2a$10$secret", Role: RoleUser, IsActive: true}
	b, err := json.Marshal(u.View())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
	assert.Contains(t, string(b), `"username":"sam"`)
}
