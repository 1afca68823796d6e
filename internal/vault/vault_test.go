package vault

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v, err := New("test-master-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stored, err := v.Encrypt(seed)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	signer, err := v.Decrypt(stored)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if signer.Address() == "" {
		t.Fatalf("expected derived address")
	}

	payload := []byte("hello")
	sig, err := signer.Sign(context.Background(), payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	key := ed25519.NewKeyFromSeed(seed)
	if !ed25519.Verify(key.Public().(ed25519.PublicKey), payload, sig) {
		t.Fatalf("signature does not verify")
	}
}

func TestDecryptRejectsWrongSecret(t *testing.T) {
	v1, _ := New("secret-one")
	v2, _ := New("secret-two")

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	stored, err := v1.Encrypt(seed)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := v2.Decrypt(stored); !errors.Is(err, ErrCredentialInvalid) {
		t.Fatalf("expected credential invalid, got %v", err)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	v, _ := New("secret")
	if _, err := v.Decrypt("{not json"); !errors.Is(err, ErrCredentialInvalid) {
		t.Fatalf("expected credential invalid, got %v", err)
	}
}

func TestEncryptKeepsCipherAndMACKeysDisjoint(t *testing.T) {
	v, _ := New("secret")
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	stored, err := v.Encrypt(seed)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(stored), &cred); err != nil {
		t.Fatalf("unmarshal credential: %v", err)
	}
	// 派生 48 字节才能让 AES-256 密钥与 MAC 密钥不共享任何字节。
	if cred.KDF.DKLen != 48 {
		t.Fatalf("expected dklen 48, got %d", cred.KDF.DKLen)
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	v, _ := New("secret")
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	stored, err := v.Encrypt(seed)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(stored), &cred); err != nil {
		t.Fatalf("unmarshal credential: %v", err)
	}
	raw, err := hex.DecodeString(cred.Ciphertext)
	if err != nil {
		t.Fatalf("decode ciphertext: %v", err)
	}
	raw[0] ^= 0xFF
	cred.Ciphertext = hex.EncodeToString(raw)
	tampered, err := json.Marshal(cred)
	if err != nil {
		t.Fatalf("marshal credential: %v", err)
	}

	if _, err := v.Decrypt(string(tampered)); !errors.Is(err, ErrCredentialInvalid) {
		t.Fatalf("expected credential invalid, got %v", err)
	}
}
