package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_WritesTaxToken(t *testing.T) {
	dir := t.TempDir()
	record := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(record, []byte(`{"id":1,"year":2025,"vehicleModel":"Toyota Corolla","plate":"ABC-123",
"ownerName":"John Doe","drivingLicenseNo":"DL-123456789","amount":5000,"issueDate":"2025-01-01","validUntil":"2025-12-31","status":"Paid"}`), 0o600))
	out := filepath.Join(dir, "cards")

	var stdout bytes.Buffer
	require.NoError(t, run([]string{"--type", "tax_token", "--record", record, "--out", out}, &stdout))

	path := filepath.Join(out, "Tax_Token_TT-2025-000001.html")
	assert.Equal(t, "tax_token TT-2025-000001 -> "+path+"\n", stdout.String())
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Vehicle Tax Payment Receipt")
	assert.Contains(t, string(body), "TT-2025-000001%7CABC-123%7C%E0%A7%B35000%7C31%2F12%2F2025")
}

func TestRun_RejectsBadInput(t *testing.T) {
	var stdout bytes.Buffer
	assert.Error(t, run([]string{"--type", "passport", "--record", "x.json"}, &stdout))
	assert.Error(t, run([]string{"--type", "license"}, &stdout))
	assert.Error(t, run([]string{"--type", "license", "--record", filepath.Join(t.TempDir(), "missing.json")}, &stdout))
}
