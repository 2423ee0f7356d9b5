package auth

import (
	"strings"
	"testing"
)

func TestGenerateVerifier(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	t.Run("Length", func(t *testing.T) {
		verifier, err := GenerateVerifier(VerifierLength)
		if err != nil {
			t.Fatalf("failed to generate verifier: %v", err)
		}
		if len(verifier) != VerifierLength {
			t.Errorf("expected length %d, got %d", VerifierLength, len(verifier))
		}
	})

	t.Run("Alphabet", func(t *testing.T) {
		verifier, err := GenerateVerifier(VerifierLength)
		if err != nil {
			t.Fatalf("failed to generate verifier: %v", err)
		}
		for _, c := range verifier {
			if !strings.ContainsRune(alphabet, c) {
				t.Errorf("verifier contains character outside alphabet: %q", c)
			}
		}
	})

	t.Run("Distinct", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 32; i++ {
			verifier, err := GenerateVerifier(VerifierLength)
			if err != nil {
				t.Fatalf("failed to generate verifier: %v", err)
			}
			if seen[verifier] {
				t.Fatal("generated a duplicate verifier")
			}
			seen[verifier] = true
		}
	})
}

func TestDeriveChallenge(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		if DeriveChallenge("verifier") != DeriveChallenge("verifier") {
			t.Error("same verifier should produce the same challenge")
		}
	})

	t.Run("DistinctInputs", func(t *testing.T) {
		if DeriveChallenge("a") == DeriveChallenge("b") {
			t.Error("different verifiers should produce different challenges")
		}
	})

	t.Run("KnownVector", func(t *testing.T) {
		// RFC 7636 appendix B.
		verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
		expected := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

		if got := DeriveChallenge(verifier); got != expected {
			t.Errorf("expected %s, got %s", expected, got)
		}
	})

	t.Run("NoPadding", func(t *testing.T) {
		if strings.Contains(DeriveChallenge("verifier"), "=") {
			t.Error("challenge must use unpadded base64url")
		}
	})
}
