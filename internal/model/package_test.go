package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "name", input: `"InTransit"`, want: StatusInTransit},
		{name: "ordinal", input: `2`, want: StatusDelivered},
		{name: "ordinal as string", input: `"0"`, want: StatusInWarehouse},
		{name: "unknown name", input: `"Lost"`, wantErr: true},
		{name: "ordinal out of range", input: `7`, wantErr: true},
		{name: "wrong type", input: `true`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s Status
			err := json.Unmarshal([]byte(tc.input), &s)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, s)
		})
	}
}

func TestPackage_MarshalJSON(t *testing.T) {
	p := Package{Name: "Chair", Status: StatusInWarehouse}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"status":"InWarehouse"`)
	assert.Contains(t, string(data), `"dateOfDelivery":null`)
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	data, err := json.Marshal(User{Username: "Admin", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
}
