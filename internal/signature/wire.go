package signature

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mini-maxit/judge-harness/pkg/errors"
)

// The driver line protocol carries one value per argument:
//
//	int       decimal line
//	bool      "true" or "false" line
//	string    byte length line, raw bytes, newline
//	int[]     count line, then one int line per element
//	string[]  count line, then one string per element
//
// The driver answers with a single value in the same encoding.

// EncodeArgs writes the arguments in declaration order.
func EncodeArgs(w io.Writer, args []Value) error {
	bw := bufio.NewWriter(w)
	for _, arg := range args {
		if err := encodeValue(bw, arg); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeValue(w *bufio.Writer, v Value) error {
	var err error
	switch v.Kind {
	case KindInt:
		_, err = fmt.Fprintf(w, "%d\n", v.Int)
	case KindBool:
		_, err = fmt.Fprintf(w, "%t\n", v.Bool)
	case KindString:
		err = encodeString(w, v.Str)
	case KindIntArray:
		if _, err = fmt.Fprintf(w, "%d\n", len(v.Ints)); err != nil {
			return err
		}
		for _, n := range v.Ints {
			if _, err = fmt.Fprintf(w, "%d\n", n); err != nil {
				return err
			}
		}
	case KindStringArray:
		if _, err = fmt.Fprintf(w, "%d\n", len(v.Strs)); err != nil {
			return err
		}
		for _, s := range v.Strs {
			if err = encodeString(w, s); err != nil {
				return err
			}
		}
	default:
		err = fmt.Errorf("%w: %s", errors.ErrUnsupportedKind, v.Kind)
	}
	return err
}

func encodeString(w *bufio.Writer, s string) error {
	if _, err := fmt.Fprintf(w, "%d\n", len(s)); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

const maxWireLength = 1 << 24

// DecodeValue reads one value of the given kind from a driver reply.
func DecodeValue(r *bufio.Reader, kind Kind) (Value, error) {
	switch kind {
	case KindInt:
		n, err := readInt(r)
		if err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case KindBool:
		line, err := readLine(r)
		if err != nil {
			return Value{}, err
		}
		b, err := strconv.ParseBool(line)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bool %q", errors.ErrMalformedSolutionReply, line)
		}
		return BoolValue(b), nil
	case KindString:
		s, err := readString(r)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case KindIntArray:
		count, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		ns := make([]int64, count)
		for i := range ns {
			if ns[i], err = readInt(r); err != nil {
				return Value{}, err
			}
		}
		return IntsValue(ns...), nil
	case KindStringArray:
		count, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		ss := make([]string, count)
		for i := range ss {
			if ss[i], err = readString(r); err != nil {
				return Value{}, err
			}
		}
		return StringsValue(ss...), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", errors.ErrUnsupportedKind, kind)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: %w", errors.ErrMalformedSolutionReply, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readInt(r *bufio.Reader) (int64, error) {
	line, err := readLine(r)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: integer %q", errors.ErrMalformedSolutionReply, line)
	}
	return n, nil
}

func readCount(r *bufio.Reader) (int, error) {
	n, err := readInt(r)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxWireLength {
		return 0, fmt.Errorf("%w: length %d out of range", errors.ErrMalformedSolutionReply, n)
	}
	return int(n), nil
}

func readString(r *bufio.Reader) (string, error) {
	size, err := readCount(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrMalformedSolutionReply, err)
	}
	if b, err := r.ReadByte(); err == nil && b != '\n' {
		_ = r.UnreadByte()
	}
	return string(buf), nil
}
