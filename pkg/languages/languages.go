package languages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mini-maxit/judge-harness/pkg/errors"
)

type LanguageType int

const (
	CPP LanguageType = iota + 1
	PYTHON
)

// LanguageSpec describes a language advertised in the handshake response.
type LanguageSpec struct {
	LanguageName string   `json:"name"`
	Versions     []string `json:"versions"`
	Extension    string   `json:"extension"`
}

func (lt LanguageType) String() string {
	for key, value := range LanguageTypeMap {
		if value == lt {
			return key
		}
	}
	return ""
}

// IsCompiled reports whether the language produces a native executable.
func (lt LanguageType) IsCompiled() bool {
	return lt == CPP
}

// GetDockerImage returns the runtime image used by the container executor.
// Every version of a language shares one image; the version only selects flags.
func (lt LanguageType) GetDockerImage(version string) (string, error) {
	if _, err := GetVersionFlag(lt, version); err != nil {
		return "", err
	}
	image, ok := LanguageImageMap[lt]
	if !ok {
		return "", errors.ErrInvalidLanguageType
	}
	return image, nil
}

var LanguageTypeMap = map[string]LanguageType{
	"CPP":    CPP,
	"PYTHON": PYTHON,
}

var languageAliases = map[string]LanguageType{
	"C++": CPP,
	"PY":  PYTHON,
}

var LanguageExtensionMap = map[LanguageType]string{
	CPP:    ".cpp",
	PYTHON: ".py",
}

var LanguageImageMap = map[LanguageType]string{
	CPP:    "gcc:13",
	PYTHON: "python:3.11-alpine",
}

var LanguageVersionMap = map[LanguageType]map[string]string{
	CPP: {
		"11": "c++11",
		"14": "c++14",
		"17": "c++17",
		"20": "c++20",
	},
	PYTHON: {
		"3": "python3",
	},
}

func GetVersionFlag(language LanguageType, version string) (string, error) {
	if versions, ok := LanguageVersionMap[language]; ok {
		if flag, ok := versions[version]; ok {
			return flag, nil
		}
		return "", errors.ErrInvalidVersion
	}
	return "", errors.ErrInvalidLanguageType
}

// DefaultVersion returns the newest supported version of a language.
func DefaultVersion(language LanguageType) string {
	versions := sortedVersions(language)
	if len(versions) == 0 {
		return ""
	}
	return versions[len(versions)-1]
}

func GetSupportedLanguages() []string {
	languages := make([]string, 0, len(LanguageTypeMap))
	for lang := range LanguageTypeMap {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}

func GetSolutionFileNameWithExtension(solutionName string, language LanguageType) (string, error) {
	if extension, ok := LanguageExtensionMap[language]; ok {
		return fmt.Sprintf("%s%s", solutionName, extension), nil
	}
	return "", errors.ErrInvalidLanguageType
}

func ParseLanguageType(s string) (LanguageType, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if lt, ok := LanguageTypeMap[key]; ok {
		return lt, nil
	}
	if lt, ok := languageAliases[key]; ok {
		return lt, nil
	}
	return 0, fmt.Errorf("%w: %q, supported: %s",
		errors.ErrInvalidLanguageType, s, strings.Join(GetSupportedLanguages(), ", "))
}

func GetSupportedLanguagesWithVersions() []LanguageSpec {
	specs := make([]LanguageSpec, 0, len(LanguageTypeMap))
	for _, name := range GetSupportedLanguages() {
		langType := LanguageTypeMap[name]
		specs = append(specs, LanguageSpec{
			LanguageName: name,
			Versions:     sortedVersions(langType),
			Extension:    LanguageExtensionMap[langType],
		})
	}
	return specs
}

func sortedVersions(language LanguageType) []string {
	versions := make([]string, 0, len(LanguageVersionMap[language]))
	for version := range LanguageVersionMap[language] {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions
}
