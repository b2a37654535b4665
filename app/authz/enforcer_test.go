package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPolicy(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role    string
		object  string
		allowed bool
	}{
		{role: "admin", object: ObjectPost, allowed: true},
		{role: "admin", object: ObjectComment, allowed: true},
		{role: "reader", object: ObjectPost, allowed: false},
		{role: "reader", object: ObjectComment, allowed: true},
		{role: "", object: ObjectPost, allowed: false},
		{role: "", object: ObjectComment, allowed: false},
		{role: "editor", object: ObjectComment, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.object, func(t *testing.T) {
			allowed, err := e.Allowed(tt.role, tt.object, ActionWrite)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestMalformedPolicy(t *testing.T) {
	_, err := NewEnforcerFromPolicy("p, admin, post")
	assert.Error(t, err)
}
