package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPending, InitialOrderStatus(PaymentMethodCard))
	assert.Equal(t, OrderStatusPending, InitialOrderStatus(PaymentMethodCOD))
	assert.Equal(t, OrderStatusPendingApproval, InitialOrderStatus(PaymentMethodInstapay))
	assert.Equal(t, OrderStatusPending, InitialOrderStatus(""))
}

func TestCredentialEmpty(t *testing.T) {
	assert.True(t, Credential{}.Empty())
	assert.False(t, Credential{Email: "acc@example.com"}.Empty())
	assert.False(t, Credential{Code: "XXXX-YYYY"}.Empty())
}

func TestAttributeMapRoundTrip(t *testing.T) {
	attrs := AttributeMap{"platform": "PC", "region": "EU"}

	value, err := attrs.Value()
	require.NoError(t, err)

	var decoded AttributeMap
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, attrs, decoded)
}

func TestAttributeMapScanDoubleEncoded(t *testing.T) {
	// Legacy rows stored the JSON re-encoded as a quoted string.
	raw := []byte(`"{\"platform\":\"PS5\"}"`)

	var attrs AttributeMap
	require.NoError(t, attrs.Scan(raw))
	assert.Equal(t, "PS5", attrs["platform"])
}

func TestAttributeMapScanNull(t *testing.T) {
	var attrs AttributeMap
	require.NoError(t, attrs.Scan(nil))
	assert.Empty(t, attrs)
}

func TestStringListScan(t *testing.T) {
	var options StringList
	require.NoError(t, options.Scan([]byte(`["steam","epic"]`)))
	assert.Equal(t, StringList{"steam", "epic"}, options)
}

func TestOrderLineCredential(t *testing.T) {
	line := OrderLine{
		CredentialEmail:    "acc@example.com",
		CredentialPassword: "hunter2",
	}
	cred := line.Credential()
	assert.Equal(t, "acc@example.com", cred.Email)
	assert.False(t, cred.Empty())

	assert.True(t, OrderLine{}.Credential().Empty())
}
