package convert

import (
	stderrors "errors"
	"math"
	"reflect"
	"testing"

	"github.com/vango-dev/prop/internal/errors"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"  -7 ", -7, false},
		{"+3", 3, false},
		{"", 0, true},
		{"4 2", 0, true},
		{"42abc", 0, true},
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		got, err := Parse[int](tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse[int](%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse[int](%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseInt16Clamps(t *testing.T) {
	tests := []struct {
		in   string
		want int16
	}{
		{"100", 100},
		{"40000", math.MaxInt16},
		{"-40000", math.MinInt16},
		{"99999999999999999999", math.MaxInt16},
	}
	for _, tt := range tests {
		got, err := Parse[int16](tt.in)
		if err != nil {
			t.Errorf("Parse[int16](%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse[int16](%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := Parse[int16]("x"); err == nil {
		t.Error("Parse[int16](\"x\") should fail")
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"TRUE", true, false},
		{" 1 ", true, false},
		{"false", false, false},
		{"False", false, false},
		{"0", false, false},
		{"yes", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		got, err := Parse[bool](tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse[bool](%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse[bool](%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFloatsAndUnsigned(t *testing.T) {
	if f, err := Parse[float64](" 2.5 "); err != nil || f != 2.5 {
		t.Errorf("Parse[float64] = %v, %v", f, err)
	}
	if f, err := Parse[float32]("0.25"); err != nil || f != 0.25 {
		t.Errorf("Parse[float32] = %v, %v", f, err)
	}
	if u, err := Parse[uint]("17"); err != nil || u != 17 {
		t.Errorf("Parse[uint] = %v, %v", u, err)
	}
	if _, err := Parse[uint]("-1"); err == nil {
		t.Error("Parse[uint](\"-1\") should fail")
	}
	if n, err := Parse[int64]("-9000000000"); err != nil || n != -9000000000 {
		t.Errorf("Parse[int64] = %v, %v", n, err)
	}
}

func TestParseStringVerbatim(t *testing.T) {
	got, err := Parse[string]("  spaced  ")
	if err != nil || got != "  spaced  " {
		t.Errorf("Parse[string] = %q, %v", got, err)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse[int]("nope")
	if !stderrors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
	if code := errors.CodeOf(err); code != "E030" {
		t.Errorf("code = %q, want E030", code)
	}

	type custom struct{}
	_, err = Parse[custom]("x")
	if !stderrors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if code := errors.CodeOf(err); code != "E031" {
		t.Errorf("code = %q, want E031", code)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{"hi", "hi"},
		{true, "true"},
		{int(-3), "-3"},
		{int16(12), "12"},
		{int64(1 << 40), "1099511627776"},
		{uint(8), "8"},
		{float32(0.1), "0.1"},
		{2.5, "2.5"},
		{[]int{1, 2}, "[1 2]"},
	}
	for _, tt := range tests {
		if got := FormatAny(tt.v); got != tt.want {
			t.Errorf("FormatAny(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
	if Format(7) != "7" {
		t.Error("Format[int] mismatch")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{"0", "-12", "65535"} {
		n, err := Parse[int](in)
		if err != nil {
			t.Fatal(err)
		}
		if Format(n) != in {
			t.Errorf("round trip %q -> %q", in, Format(n))
		}
	}
}

func TestLookupType(t *testing.T) {
	tests := map[string]reflect.Type{
		"int":      reflect.TypeFor[int](),
		"Double":   reflect.TypeFor[float64](),
		"unsigned": reflect.TypeFor[uint](),
		" bool ":   reflect.TypeFor[bool](),
	}
	for name, want := range tests {
		got, ok := LookupType(name)
		if !ok || got != want {
			t.Errorf("LookupType(%q) = %v, %v; want %v", name, got, ok, want)
		}
		if !Supported(got) {
			t.Errorf("%v should be supported", got)
		}
	}
	if _, ok := LookupType("complex128"); ok {
		t.Error("complex128 should not resolve")
	}
}

func TestParseAs(t *testing.T) {
	v, err := ParseAs(reflect.TypeFor[int16](), "5")
	if err != nil {
		t.Fatal(err)
	}
	if v.(int16) != 5 {
		t.Errorf("ParseAs = %v", v)
	}
	if TypeName[int16]() != "int16" {
		t.Errorf("TypeName[int16]() = %q", TypeName[int16]())
	}
}
