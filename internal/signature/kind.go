package signature

import (
	"fmt"
	"strings"

	"github.com/mini-maxit/judge-harness/pkg/errors"
)

// Kind is one of the closed set of argument and return types.
type Kind string

const (
	KindInt         Kind = "int"
	KindIntArray    Kind = "int[]"
	KindString      Kind = "string"
	KindStringArray Kind = "string[]"
	KindBool        Kind = "bool"
)

var kindAliases = map[string]Kind{
	"int":            KindInt,
	"integer":        KindInt,
	"number":         KindInt,
	"int[]":          KindIntArray,
	"integer[]":      KindIntArray,
	"number[]":       KindIntArray,
	"vector<int>":    KindIntArray,
	"list[int]":      KindIntArray,
	"string":         KindString,
	"str":            KindString,
	"string[]":       KindStringArray,
	"vector<string>": KindStringArray,
	"list[str]":      KindStringArray,
	"bool":           KindBool,
	"boolean":        KindBool,
}

// ParseKind resolves a declared type name, accepting the common spellings
// used in problem metadata.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if k, ok := kindAliases[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnsupportedKind, s)
}

func (k Kind) Valid() bool {
	switch k {
	case KindInt, KindIntArray, KindString, KindStringArray, KindBool:
		return true
	default:
		return false
	}
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value is a tagged variant holding one argument or return value.
type Value struct {
	Kind Kind
	Int  int64
	Ints []int64
	Str  string
	Strs []string
	Bool bool
}

func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

func IntsValue(ns ...int64) Value {
	if ns == nil {
		ns = []int64{}
	}
	return Value{Kind: KindIntArray, Ints: ns}
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func StringsValue(ss ...string) Value {
	if ss == nil {
		ss = []string{}
	}
	return Value{Kind: KindStringArray, Strs: ss}
}

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }
