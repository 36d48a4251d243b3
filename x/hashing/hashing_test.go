package hashing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintShape(t *testing.T) {
	for _, in := range []string{"", "cfg-A", "final", "some longer input with spaces and unicode: ✓"} {
		fp := Fingerprint(in)
		require.Len(t, fp, FingerprintLen)
		for _, c := range fp {
			require.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'),
				"fingerprint must be lowercase hex, got %q", fp)
		}
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	require.Equal(t, Fingerprint("cfg-A"), Fingerprint("cfg-A"))
	require.NotEqual(t, Fingerprint("cfg-A"), Fingerprint("cfg-B"))
}

func TestFingerprintKnownVector(t *testing.T) {
	// sha256("abc")
	require.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Fingerprint("abc"))
}
