package languages_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/mini-maxit/judge-harness/pkg/errors"
	. "github.com/mini-maxit/judge-harness/pkg/languages"
)

func TestParseLanguageType(t *testing.T) {
	tests := []struct {
		in   string
		want LanguageType
	}{
		{"cpp", CPP},
		{"CPP", CPP},
		{"c++", CPP},
		{"python", PYTHON},
		{" Py ", PYTHON},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguageType(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	_, err := ParseLanguageType("javascript")
	if !errors.Is(err, pkgerrors.ErrInvalidLanguageType) {
		t.Fatalf("expected ErrInvalidLanguageType, got %v", err)
	}
}

func TestGetVersionFlag(t *testing.T) {
	flag, err := GetVersionFlag(CPP, "17")
	if err != nil || flag != "c++17" {
		t.Fatalf("expected c++17, got %q (%v)", flag, err)
	}

	if _, err := GetVersionFlag(CPP, "98"); !errors.Is(err, pkgerrors.ErrInvalidVersion) {
		t.Fatalf("expected ErrInvalidVersion, got %v", err)
	}

	if _, err := GetVersionFlag(LanguageType(99), "1"); !errors.Is(err, pkgerrors.ErrInvalidLanguageType) {
		t.Fatalf("expected ErrInvalidLanguageType, got %v", err)
	}
}

func TestGetDockerImage(t *testing.T) {
	image, err := PYTHON.GetDockerImage("3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if image != "python:3.11-alpine" {
		t.Fatalf("unexpected image %q", image)
	}

	if _, err := CPP.GetDockerImage("2"); err == nil {
		t.Fatalf("expected error for unsupported version")
	}
}

func TestGetSolutionFileNameWithExtension(t *testing.T) {
	name, err := GetSolutionFileNameWithExtension("solution", PYTHON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "solution.py" {
		t.Fatalf("expected solution.py, got %q", name)
	}
}

func TestGetSupportedLanguagesWithVersions(t *testing.T) {
	specs := GetSupportedLanguagesWithVersions()
	if len(specs) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(specs))
	}
	if specs[0].LanguageName != "CPP" || specs[1].LanguageName != "PYTHON" {
		t.Fatalf("unexpected order: %+v", specs)
	}
	if DefaultVersion(CPP) != "20" {
		t.Fatalf("expected default cpp version 20, got %q", DefaultVersion(CPP))
	}
}
