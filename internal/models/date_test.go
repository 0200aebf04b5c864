package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	var payload struct {
		DOB Date `json:"dob"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"dob":"2008-03-14"}`), &payload))
	assert.Equal(t, 2008, payload.DOB.Year())
	assert.Equal(t, time.March, payload.DOB.Month())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dob":"2008-03-14"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"dob":"14/03/2008"}`), &payload))
}

func TestDateScanAndEqual(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2008, 3, 14, 0, 0, 0, 0, time.FixedZone("IST", 19800))))
	other, err := ParseDate("2008-03-14")
	require.NoError(t, err)
	assert.True(t, d.Equal(other))

	require.NoError(t, d.Scan([]byte("2009-01-02T00:00:00Z")))
	assert.Equal(t, "2009-01-02", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2009-01-02", v)
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleEditor))
	assert.False(t, RoleEditor.AtLeast(RoleAdmin))
	assert.False(t, UserRole("STUDENT").AtLeast(RoleEditor))
	assert.False(t, UserRole("").Valid())
}

func TestPublishTimeAcceptsDateOrTimestamp(t *testing.T) {
	var payload struct {
		At PublishTime `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2026-05-01"}`), &payload))
	assert.True(t, payload.At.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, json.Unmarshal([]byte(`{"at":"2026-05-01T09:30:00+05:30"}`), &payload))
	assert.True(t, payload.At.Equal(time.Date(2026, 5, 1, 4, 0, 0, 0, time.UTC)))

	require.NoError(t, json.Unmarshal([]byte(`{"at":null}`), &payload))
	assert.True(t, payload.At.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"at":"01/05/2026"}`), &payload))
}
