package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/errors"
)

// Codec turns a test input into arguments and a result into its canonical text.
type Codec interface {
	Parse(input string) ([]Value, error)
	Format(v Value) (string, error)
}

type commaInts struct {
	sig Signature
}

func (c commaInts) Parse(input string) ([]Value, error) {
	tokens := strings.Split(input, ",")
	nums := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf(constants.TestFaultMessageNotInteger, tok)
		}
		nums = append(nums, n)
	}

	if len(c.sig.Params) == 1 && c.sig.Params[0].Type == KindIntArray {
		return []Value{IntsValue(nums...)}, nil
	}
	if len(nums) != len(c.sig.Params) {
		return nil, fmt.Errorf(constants.TestFaultMessageArity, len(c.sig.Params), len(nums))
	}
	args := make([]Value, len(nums))
	for i, n := range nums {
		args[i] = IntValue(n)
	}
	return args, nil
}

func (c commaInts) Format(v Value) (string, error) {
	if v.Kind != KindInt {
		return "", fmt.Errorf("%w: expected int result, got %s", errors.ErrUnsupportedKind, v.Kind)
	}
	return strconv.FormatInt(v.Int, 10), nil
}

type typed struct {
	sig Signature
}

func (c typed) Parse(input string) ([]Value, error) {
	tokens, err := splitTopLevel(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) != len(c.sig.Params) {
		return nil, fmt.Errorf(constants.TestFaultMessageArity, len(c.sig.Params), len(tokens))
	}

	args := make([]Value, len(tokens))
	for i, tok := range tokens {
		v, err := decodeLiteral(tok, c.sig.Params[i].Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", c.sig.Params[i].Name, err)
		}
		args[i] = v
	}
	return args, nil
}

func (c typed) Format(v Value) (string, error) {
	if v.Kind != c.sig.ReturnType {
		return "", fmt.Errorf("%w: expected %s result, got %s", errors.ErrUnsupportedKind, c.sig.ReturnType, v.Kind)
	}

	var native any
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10), nil
	case KindBool:
		return strconv.FormatBool(v.Bool), nil
	case KindIntArray:
		native = nonNil(v.Ints)
	case KindString:
		native = v.Str
	case KindStringArray:
		native = nonNil(v.Strs)
	default:
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedKind, v.Kind)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(native); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeLiteral(tok string, kind Kind) (Value, error) {
	if tok == "null" {
		return Value{}, fmt.Errorf("null is not a valid %s", kind)
	}
	data := []byte(tok)

	switch kind {
	case KindInt:
		var n int32
		if err := json.Unmarshal(data, &n); err != nil {
			return Value{}, fmt.Errorf(constants.TestFaultMessageNotInteger, tok)
		}
		return IntValue(int64(n)), nil
	case KindIntArray:
		var ns []int32
		if err := json.Unmarshal(data, &ns); err != nil {
			return Value{}, fmt.Errorf("invalid int[] %q: %w", tok, err)
		}
		wide := make([]int64, len(ns))
		for i, n := range ns {
			wide[i] = int64(n)
		}
		return IntsValue(wide...), nil
	case KindString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, fmt.Errorf("invalid string %q: %w", tok, err)
		}
		return StringValue(s), nil
	case KindStringArray:
		var ss []string
		if err := json.Unmarshal(data, &ss); err != nil {
			return Value{}, fmt.Errorf("invalid string[] %q: %w", tok, err)
		}
		return StringsValue(ss...), nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, fmt.Errorf("invalid bool %q: %w", tok, err)
		}
		return BoolValue(b), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", errors.ErrUnsupportedKind, kind)
	}
}

// splitTopLevel splits on commas that are outside brackets and string literals.
func splitTopLevel(input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	var (
		tokens   []string
		depth    int
		inString bool
		escaped  bool
		start    int
	)
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in input %q", input)
			}
		case ',':
			if depth == 0 {
				tokens = append(tokens, strings.TrimSpace(input[start:i]))
				start = i + 1
			}
		}
	}
	if inString || depth != 0 {
		return nil, fmt.Errorf("unterminated literal in input %q", input)
	}
	return append(tokens, strings.TrimSpace(input[start:])), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
