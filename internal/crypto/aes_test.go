package crypto

import (
	"strings"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	keysMap := map[string][]byte{
		"v1": make([]byte, 32),
	}
	plain := []byte("<p>relato da sessão</p>")
	cipherText, nonce, err := Encrypt(plain, "v1", keysMap)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(cipherText) == 0 || len(nonce) == 0 {
		t.Fatal("cipher and nonce must be non-empty")
	}
	dec, err := Decrypt(cipherText, nonce, "v1", keysMap)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(dec) != string(plain) {
		t.Fatalf("decrypted %q != plain %q", dec, plain)
	}
}

func TestEncryptUnknownKeyVersion(t *testing.T) {
	if _, _, err := Encrypt([]byte("x"), "v9", map[string][]byte{"v1": make([]byte, 32)}); err == nil {
		t.Fatal("expected error for unknown key version")
	}
}

func TestParseKeysEnv(t *testing.T) {
	// 32 bytes em base64 = 43 chars sem padding
	key := strings.Repeat("A", 43)
	m, err := ParseKeysEnv("v1:" + key)
	if err != nil {
		t.Fatalf("ParseKeysEnv: %v", err)
	}
	if len(m["v1"]) != 32 {
		t.Fatalf("key length: %d", len(m["v1"]))
	}
	// com padding "=" também deve funcionar
	mPad, err := ParseKeysEnv("v1:" + key + "=")
	if err != nil {
		t.Fatalf("ParseKeysEnv (padded): %v", err)
	}
	if len(mPad["v1"]) != 32 {
		t.Fatalf("key length (padded): %d", len(mPad["v1"]))
	}
	m2, err := ParseKeysEnv("v1:" + key + ", v2:" + strings.Repeat("B", 43))
	if err != nil {
		t.Fatalf("ParseKeysEnv multi: %v", err)
	}
	if len(m2["v1"]) != 32 || len(m2["v2"]) != 32 {
		t.Fatalf("multi key lengths: v1=%d v2=%d", len(m2["v1"]), len(m2["v2"]))
	}
}

func TestNormalizeCPF(t *testing.T) {
	if got := NormalizeCPF("529.982.247-25"); got != "52998224725" {
		t.Fatalf("NormalizeCPF: %q", got)
	}
	if CPFHash("52998224725") == "" {
		t.Fatal("CPFHash must not be empty")
	}
}
