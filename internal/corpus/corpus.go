// Package corpus loads the ordered list of test cases for one submission.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mini-maxit/judge-harness/pkg/errors"
)

// TestCase is one input with its expected canonical output.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Explanation    string `json:"explanation"`
}

var requiredFields = []string{"input", "expectedOutput", "explanation"}

// LoadError reports a corpus that could not be read or does not match the schema.
// Index is -1 when the failure is not tied to a single entry.
type LoadError struct {
	Source string
	Index  int
	Field  string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("failed to load test cases from %s: %v", e.Source, e.Err)
	case e.Field == "":
		return fmt.Sprintf("failed to load test cases from %s: entry %d: %v", e.Source, e.Index, e.Err)
	default:
		return fmt.Sprintf("failed to load test cases from %s: entry %d: field %q: %v",
			e.Source, e.Index, e.Field, e.Err)
	}
}

func (e *LoadError) Unwrap() []error {
	return []error{errors.ErrCorpusLoadFailed, e.Err}
}

func LoadFile(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Index: -1, Err: err}
	}
	return decode(path, data)
}

func LoadReader(r io.Reader) ([]TestCase, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Source: "stream", Index: -1, Err: err}
	}
	return decode("stream", data)
}

func LoadBytes(data []byte) ([]TestCase, error) {
	return decode("inline", data)
}

func decode(source string, data []byte) ([]TestCase, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &LoadError{Source: source, Index: -1, Err: fmt.Errorf("expected a JSON array of test cases")}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, &LoadError{Source: source, Index: -1, Err: err}
	}

	cases := make([]TestCase, 0, len(entries))
	for i, raw := range entries {
		tc, err := decodeEntry(source, i, raw)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func decodeEntry(source string, index int, raw json.RawMessage) (TestCase, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return TestCase{}, &LoadError{Source: source, Index: index, Err: fmt.Errorf("expected an object")}
	}

	values := make(map[string]string, len(requiredFields))
	for _, name := range requiredFields {
		value, ok := fields[name]
		if !ok {
			return TestCase{}, &LoadError{Source: source, Index: index, Field: name, Err: fmt.Errorf("missing")}
		}
		var s string
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return TestCase{}, &LoadError{Source: source, Index: index, Field: name, Err: fmt.Errorf("expected a string, got null")}
		}
		if err := json.Unmarshal(value, &s); err != nil {
			return TestCase{}, &LoadError{Source: source, Index: index, Field: name, Err: fmt.Errorf("expected a string")}
		}
		values[name] = s
	}

	return TestCase{
		Input:          values["input"],
		ExpectedOutput: values["expectedOutput"],
		Explanation:    values["explanation"],
	}, nil
}
