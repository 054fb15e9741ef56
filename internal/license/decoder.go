package license

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// decodeLicenseData turns the base64 envelope field into raw payload bytes.
// These bytes are exactly what the issuance service signed.
func decodeLicenseData(licenseData string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(licenseData)
	if err != nil {
		return nil, fmt.Errorf("license data is not valid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("license data is empty")
	}
	return data, nil
}

// decodeLicense deserializes payload bytes into a License. Unknown fields
// are ignored so newer issuers stay compatible with older validators. Any
// failure is reported as an error for the caller to surface as Corrupted;
// nothing throws past this boundary.
func decodeLicense(data []byte) (*License, error) {
	var lic License
	if err := json.Unmarshal(data, &lic); err != nil {
		return nil, fmt.Errorf("license payload is not valid JSON: %w", err)
	}
	if lic.LicenseID == "" {
		return nil, fmt.Errorf("license payload has no licenseId")
	}
	return &lic, nil
}
