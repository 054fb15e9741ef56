package license

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLicenseData(t *testing.T) {
	t.Run("valid base64", func(t *testing.T) {
		data, err := decodeLicenseData(base64.StdEncoding.EncodeToString([]byte("payload")))
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := decodeLicenseData("!!! not base64 !!!")
		assert.Error(t, err)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := decodeLicenseData("")
		assert.Error(t, err)
	})
}

func TestDecodeLicense(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		raw := `{
			"licenseId": "lic-1",
			"productId": "prod-1",
			"consumerId": "cons-1",
			"licensedTo": "Example Corp",
			"tier": "Enterprise",
			"validFrom": "2026-01-01T00:00:00Z",
			"validTo": "2027-01-01T00:00:00Z",
			"featuresIncluded": [
				{"id": "f1", "name": "Reporting", "isCurrentlyValid": true}
			],
			"metadata": {"region": "eu"}
		}`
		lic, err := decodeLicense([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, "lic-1", lic.LicenseID)
		assert.Equal(t, TierEnterprise, lic.Tier)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), lic.ValidFrom)
		require.Len(t, lic.FeaturesIncluded, 1)
		assert.True(t, lic.FeaturesIncluded[0].IsCurrentlyValid)
		assert.Equal(t, "eu", lic.Metadata["region"])
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		raw := `{"licenseId": "lic-2", "someFutureField": {"nested": true}, "anotherOne": 42}`
		lic, err := decodeLicense([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, "lic-2", lic.LicenseID)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := decodeLicense([]byte("this is not json"))
		assert.Error(t, err)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := decodeLicense([]byte(`{"licenseId": 12345}`))
		assert.Error(t, err)
	})

	t.Run("missing license id", func(t *testing.T) {
		_, err := decodeLicense([]byte(`{}`))
		assert.Error(t, err)
	})
}
