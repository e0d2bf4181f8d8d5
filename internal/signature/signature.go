// Package signature declares the calling convention of a solution entry point
// and the codecs that turn test inputs into arguments and results into text.
package signature

import (
	"fmt"
	"os"
	"regexp"

	"github.com/mini-maxit/judge-harness/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Convention selects how test inputs are parsed and results are formatted.
type Convention string

const (
	// ConventionCommaInts splits the input on commas and reads base-10 integers.
	ConventionCommaInts Convention = "comma-ints"
	// ConventionTyped reads one JSON literal per declared parameter.
	ConventionTyped Convention = "typed"
)

const defaultMethodName = "solution"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Param struct {
	Name string `yaml:"name" json:"name"`
	Type Kind   `yaml:"type" json:"type"`
}

// Signature is the declared shape of a solution entry point.
type Signature struct {
	ClassName  string     `yaml:"className,omitempty" json:"className,omitempty"`
	MethodName string     `yaml:"methodName" json:"methodName"`
	Params     []Param    `yaml:"params" json:"params"`
	ReturnType Kind       `yaml:"returnType" json:"returnType"`
	Convention Convention `yaml:"convention,omitempty" json:"convention,omitempty"`
}

// Default is `int solution(int[] nums)` read with the comma-ints convention.
func Default() Signature {
	return Signature{
		MethodName: defaultMethodName,
		Params:     []Param{{Name: "nums", Type: KindIntArray}},
		ReturnType: KindInt,
		Convention: ConventionCommaInts,
	}
}

// Parse decodes problem metadata in YAML or JSON form. A missing convention
// means typed inputs.
func Parse(data []byte) (Signature, error) {
	var sig Signature
	if err := yaml.Unmarshal(data, &sig); err != nil {
		return Signature{}, fmt.Errorf("%w: %w", errors.ErrInvalidSignature, err)
	}
	if sig.Convention == "" {
		sig.Convention = ConventionTyped
	}
	if err := sig.Validate(); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// Load reads a signature file. A missing file yields the default signature.
func Load(path string) (Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Signature{}, fmt.Errorf("%w: %w", errors.ErrInvalidSignature, err)
	}
	return Parse(data)
}

func (s Signature) Validate() error {
	if !identifierRe.MatchString(s.MethodName) {
		return fmt.Errorf("%w: invalid method name %q", errors.ErrInvalidSignature, s.MethodName)
	}
	if s.ClassName != "" && !identifierRe.MatchString(s.ClassName) {
		return fmt.Errorf("%w: invalid class name %q", errors.ErrInvalidSignature, s.ClassName)
	}
	if !s.ReturnType.Valid() {
		return fmt.Errorf("%w: return type %q", errors.ErrUnsupportedKind, s.ReturnType)
	}
	for i, p := range s.Params {
		if !identifierRe.MatchString(p.Name) {
			return fmt.Errorf("%w: invalid name for parameter %d", errors.ErrInvalidSignature, i)
		}
		if !p.Type.Valid() {
			return fmt.Errorf("%w: parameter %s has type %q", errors.ErrUnsupportedKind, p.Name, p.Type)
		}
	}

	switch s.Convention {
	case ConventionTyped:
		return nil
	case ConventionCommaInts:
		if s.ReturnType != KindInt {
			return fmt.Errorf("%w: comma-ints convention returns int", errors.ErrInvalidSignature)
		}
		if len(s.Params) == 1 && s.Params[0].Type == KindIntArray {
			return nil
		}
		for _, p := range s.Params {
			if p.Type != KindInt {
				return fmt.Errorf("%w: comma-ints convention takes int[] or int parameters",
					errors.ErrInvalidSignature)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown convention %q", errors.ErrInvalidSignature, s.Convention)
	}
}

// Codec returns the parsing strategy selected by the signature.
func (s Signature) Codec() Codec {
	if s.Convention == ConventionCommaInts {
		return commaInts{sig: s}
	}
	return typed{sig: s}
}

// Kinds lists parameter types in declaration order.
func (s Signature) Kinds() []Kind {
	kinds := make([]Kind, len(s.Params))
	for i, p := range s.Params {
		kinds[i] = p.Type
	}
	return kinds
}
