package roles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocol-bank/custody-engine/internal/principal"
)

func TestAllowance_DecreaseLimitExhausts(t *testing.T) {
	limit := uint8(1)
	now := time.Unix(1000, 0)
	a := NewAllowance(nil, &limit, nil, now)

	assert.True(t, a.Allowed(now))

	remaining, limited := a.DecreaseLimit()
	require.True(t, limited)
	require.NotNil(t, remaining)
	assert.Equal(t, uint8(0), *remaining)
	assert.False(t, a.Allowed(now), "a zero-limit allowance should no longer be usable")
}

func TestAllowance_UnlimitedNeverExhausts(t *testing.T) {
	now := time.Unix(1000, 0)
	a := NewAllowance(nil, nil, nil, now)

	_, limited := a.DecreaseLimit()
	assert.False(t, limited)
	assert.True(t, a.Allowed(now))
}

func TestAllowance_ExpiresAtDeadline(t *testing.T) {
	now := time.Unix(1000, 0)
	expiry := now.Add(time.Minute)
	a := NewAllowance(nil, nil, &expiry, now)

	assert.True(t, a.Allowed(now))
	assert.False(t, a.Allowed(expiry.Add(time.Second)))
}

func TestAllowanceRegistry_SetGetRemove(t *testing.T) {
	reg := NewAllowanceRegistry()
	caller, err := principal.New([]byte{42})
	require.NoError(t, err)

	now := time.Unix(1000, 0)
	reg.Set(caller, NewAllowance(map[string]string{"purpose": "top-up"}, nil, nil, now))

	got, ok := reg.Get(caller)
	require.True(t, ok)
	assert.Equal(t, "top-up", got.Metadata["purpose"])

	reg.Remove(caller)
	_, ok = reg.Get(caller)
	assert.False(t, ok)
}
