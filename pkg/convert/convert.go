// Package convert turns property values into text and back.
//
// It backs every place where a property's value crosses a text boundary:
// defining properties from configuration strings, the HTTP API and the
// command line. Parsing ignores surrounding whitespace and requires the
// whole remaining input to match:
//
//	n, err := convert.Parse[int](" 42 ")  // 42, nil
//	_, err = convert.Parse[int]("42abc")  // E030 wrapping ErrSyntax
//
// int16 values outside the representable range are clamped rather than
// rejected. Booleans accept 1, 0, true and false in any letter case.
package convert

import (
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/vango-dev/prop/internal/errors"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = stderrors.New("convert: invalid syntax")

// ErrUnsupported is wrapped when a type has no text form.
var ErrUnsupported = stderrors.New("convert: unsupported type")

var supported = map[reflect.Type]struct{}{
	reflect.TypeFor[string]():  {},
	reflect.TypeFor[bool]():    {},
	reflect.TypeFor[int]():     {},
	reflect.TypeFor[int16]():   {},
	reflect.TypeFor[int64]():   {},
	reflect.TypeFor[uint]():    {},
	reflect.TypeFor[float32](): {},
	reflect.TypeFor[float64](): {},
}

// Supported reports whether Parse handles values of type t.
func Supported(t reflect.Type) bool {
	_, ok := supported[t]
	return ok
}

// Parse converts s into a value of type T.
func Parse[T any](s string) (T, error) {
	var out T
	v, err := parseAny(reflect.TypeFor[T](), s)
	if err != nil {
		return out, err
	}
	return v.(T), nil
}

// ParseAs converts s into a value of type t and returns it boxed.
func ParseAs(t reflect.Type, s string) (any, error) {
	return parseAny(t, s)
}

func parseAny(t reflect.Type, s string) (any, error) {
	if t == reflect.TypeFor[string]() {
		// Strings are taken verbatim.
		return s, nil
	}

	trimmed := strings.TrimSpace(s)
	switch t {
	case reflect.TypeFor[bool]():
		switch strings.ToLower(trimmed) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return nil, syntaxError(s, "bool")

	case reflect.TypeFor[int]():
		n, err := strconv.ParseInt(trimmed, 10, strconv.IntSize)
		if err != nil {
			return nil, syntaxError(s, "int")
		}
		return int(n), nil

	case reflect.TypeFor[int16]():
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil && !isRange(err) {
			return nil, syntaxError(s, "int16")
		}
		return clampInt16(n), nil

	case reflect.TypeFor[int64]():
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, syntaxError(s, "int64")
		}
		return n, nil

	case reflect.TypeFor[uint]():
		n, err := strconv.ParseUint(trimmed, 10, strconv.IntSize)
		if err != nil {
			return nil, syntaxError(s, "unsigned")
		}
		return uint(n), nil

	case reflect.TypeFor[float32]():
		f, err := strconv.ParseFloat(trimmed, 32)
		if err != nil {
			return nil, syntaxError(s, "float")
		}
		return float32(f), nil

	case reflect.TypeFor[float64]():
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, syntaxError(s, "double")
		}
		return f, nil
	}

	return nil, errors.New("E031").
		WithDetailf("cannot parse %s", typeName(t)).
		Wrap(ErrUnsupported)
}

// Format returns the text form of v.
// Types without a dedicated form fall back to fmt's %v.
func Format[T any](v T) string {
	return FormatAny(v)
}

// FormatAny is Format for boxed values.
func FormatAny(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

// TypeName returns the short name used for T on the command line and in
// the HTTP API ("int", "float64", ...).
func TypeName[T any]() string {
	return typeName(reflect.TypeFor[T]())
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func clampInt16(n int64) int16 {
	switch {
	case n > math.MaxInt16:
		return math.MaxInt16
	case n < math.MinInt16:
		return math.MinInt16
	}
	return int16(n)
}

func isRange(err error) bool {
	var ne *strconv.NumError
	return stderrors.As(err, &ne) && ne.Err == strconv.ErrRange
}

func syntaxError(s, kind string) error {
	return errors.New("E030").
		WithDetailf("%q as %s", s, kind).
		Wrap(ErrSyntax)
}

var typeNames = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"bool":     reflect.TypeFor[bool](),
	"int":      reflect.TypeFor[int](),
	"int16":    reflect.TypeFor[int16](),
	"int64":    reflect.TypeFor[int64](),
	"uint":     reflect.TypeFor[uint](),
	"unsigned": reflect.TypeFor[uint](),
	"float":    reflect.TypeFor[float32](),
	"float32":  reflect.TypeFor[float32](),
	"double":   reflect.TypeFor[float64](),
	"float64":  reflect.TypeFor[float64](),
}

// LookupType resolves a type name such as "int" or "double".
func LookupType(name string) (reflect.Type, bool) {
	t, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}
