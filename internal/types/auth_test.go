package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request CreateUserRequest
		wantErr bool
	}{
		{
			name:    "valid",
			request: CreateUserRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "hunter2hunter2"},
		},
		{
			name:    "missing name",
			request: CreateUserRequest{Email: "jane@example.com", Password: "hunter2hunter2"},
			wantErr: true,
		},
		{
			name:    "bad email",
			request: CreateUserRequest{Name: "Jane Doe", Email: "not-an-email", Password: "hunter2hunter2"},
			wantErr: true,
		},
		{
			name:    "password too short",
			request: CreateUserRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "short"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	valid := LoginRequest{Email: "jane@example.com", Password: "hunter2hunter2"}
	assert.NoError(t, valid.Validate())

	noEmail := LoginRequest{Password: "hunter2hunter2"}
	assert.Error(t, noEmail.Validate())

	noPassword := LoginRequest{Email: "jane@example.com"}
	assert.Error(t, noPassword.Validate())
}

func TestCreateUserRequest_PasswordNeverSerialized(t *testing.T) {
	// The request type is input-only; responses use User, which has no
	// password field at all
	data, err := json.Marshal(User{Name: "Jane Doe", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
}
