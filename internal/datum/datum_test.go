package datum

import "testing"

func TestParseAndString(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
		in   string
		want string
	}{
		{"string", String, "hello", "hello"},
		{"octets", Octets, "0xdeadbeef", "0xdeadbeef"},
		{"integer", Integer, "42", "42"},
		{"boolean", Boolean, "true", "true"},
		{"ipaddr", IPAddr, "192.0.2.1", "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.kind, tc.in)
			if err != nil {
				t.Fatalf("Parse(%q) = %v", tc.in, err)
			}
			if got := v.String(); got != tc.want {
				t.Fatalf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseOctetsRejectsOddLength(t *testing.T) {
	if _, err := Parse(Octets, "0xabc"); err == nil {
		t.Fatal("expected error for odd-length hex")
	}
	if _, err := Parse(Octets, "0x"); err == nil {
		t.Fatal("expected error for empty hex")
	}
	v, err := Parse(Octets, "0x00")
	if err != nil {
		t.Fatalf("Parse(0x00) = %v", err)
	}
	if len(v.Bytes()) != 1 || v.Bytes()[0] != 0 {
		t.Fatalf("expected one zero byte, got %v", v.Bytes())
	}
}

func TestNewRejectsTLV(t *testing.T) {
	if _, err := New(TLV, nil); err == nil {
		t.Fatal("expected tlv construction to fail")
	}
	if _, err := Parse(TLV, "anything"); err == nil {
		t.Fatal("expected tlv parse to fail")
	}
}

func TestCastRoundTrip(t *testing.T) {
	v, err := Parse(String, "123")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cast, err := Cast(v, Integer)
	if err != nil {
		t.Fatalf("Cast: %v", err)
	}
	n, ok := cast.Int64()
	if !ok || n != 123 {
		t.Fatalf("Int64() = %d, %v, want 123, true", n, ok)
	}
}

func TestCastRejectsTLV(t *testing.T) {
	v, _ := Parse(String, "x")
	if _, err := Cast(v, TLV); err == nil {
		t.Fatal("expected cast to tlv to fail")
	}
}
