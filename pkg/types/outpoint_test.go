package types

import (
	"strings"
	"testing"
)

func TestOutpoint_IsZero(t *testing.T) {
	var zero Outpoint
	if !zero.IsZero() {
		t.Error("zero-value Outpoint should be zero")
	}

	nonZero := Outpoint{TxID: Hash{0x01}, Index: 0}
	if nonZero.IsZero() {
		t.Error("Outpoint with non-zero TxID should not be zero")
	}
}

func TestOutpoint_String(t *testing.T) {
	o := Outpoint{TxID: Hash{0xab}, Index: 3}
	s := o.String()
	if !strings.HasPrefix(s, "ab") {
		t.Errorf("String() should start with txid hex, got %s", s)
	}
	if !strings.HasSuffix(s, "#3") {
		t.Errorf("String() should end with '#3', got %s", s)
	}
}

func TestParseOutpoint(t *testing.T) {
	o := Outpoint{TxID: Hash{0xde, 0xad}, Index: 7}
	parsed, err := ParseOutpoint(o.String())
	if err != nil {
		t.Fatalf("ParseOutpoint: %v", err)
	}
	if parsed != o {
		t.Errorf("got %v, want %v", parsed, o)
	}

	for _, bad := range []string{"", "abcd", "zz#1", Hash{}.String() + "#x"} {
		if _, err := ParseOutpoint(bad); err == nil {
			t.Errorf("ParseOutpoint(%q) should fail", bad)
		}
	}
}
