package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

func TestHash_KnownVector(t *testing.T) {
	got := Hash([]byte{})
	want := "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("Hash(empty) = %x, want %s", got, want)
	}
}

func TestKeyHashFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	pub := key.PublicKey()

	kh := KeyHashFromPubKey(pub)
	full := Hash(pub)
	var want types.KeyHash
	copy(want[:], full[:types.CredentialHashSize])
	if kh != want {
		t.Errorf("KeyHashFromPubKey = %s, want %s", kh, want)
	}
	if key.KeyHash() != kh {
		t.Error("PrivateKey.KeyHash() should match KeyHashFromPubKey")
	}
}

func TestScriptHashOf(t *testing.T) {
	code := []byte{0x49, 0x01, 0x00, 0x00, 0x22, 0x22}
	h1 := ScriptHashOf(3, code)
	h2 := ScriptHashOf(3, code)
	if h1 != h2 {
		t.Error("ScriptHashOf is not deterministic")
	}
	if ScriptHashOf(2, code) == h1 {
		t.Error("version tag should change the script hash")
	}
	if ScriptHashOf(3, append(code, 0x00)) == h1 {
		t.Error("different code should change the script hash")
	}
}
