package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecrets_RoundTrip(t *testing.T) {
	secrets := map[string]string{
		"paraswap_api_key": "ps-key-123",
		"bearer_token":     "AAAA%2Ftoken",
	}

	blob, err := EncryptSecrets(secrets, "hunter2")
	require.NoError(t, err)

	got, err := DecryptSecrets(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, secrets, got)
}

func TestDecryptSecrets_WrongPassword(t *testing.T) {
	blob, err := EncryptSecrets(map[string]string{"k": "v"}, "correct")
	require.NoError(t, err)

	_, err = DecryptSecrets(blob, "incorrect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestEncryptSecrets_EmptyPassword(t *testing.T) {
	_, err := EncryptSecrets(map[string]string{"k": "v"}, "")
	require.Error(t, err)
}

func TestEncryptSecrets_EmptyMap(t *testing.T) {
	_, err := EncryptSecrets(nil, "pw")
	require.Error(t, err)
}

func TestLoadVault_EmptyPathIsOptional(t *testing.T) {
	got, err := LoadVault("", "pw")
	require.NoError(t, err)
	assert.Empty(t, got)
}
