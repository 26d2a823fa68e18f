package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language is a script-language family the scanner understands.
// The zero value means the language is unknown.
type Language int

const (
	LanguageUnknown Language = iota
	LanguagePHP
	LanguageJSP
	LanguageAspNet
	LanguagePython
)

type languageInfo struct {
	name       string
	key        string
	extensions []string
}

// Table order is also the identification order.
var languageTable = []struct {
	lang Language
	info languageInfo
}{
	{LanguagePHP, languageInfo{"PHP", "php", []string{".php", ".phtml", ".php3", ".php4", ".php5", ".php7", ".phps", ".phar", ".inc"}}},
	{LanguageJSP, languageInfo{"JSP", "jsp", []string{".jsp", ".jspx", ".jspa", ".jsw", ".jsv"}}},
	{LanguageAspNet, languageInfo{"ASP.NET", "aspnet", []string{".aspx", ".ashx", ".asmx", ".ascx", ".asp"}}},
	{LanguagePython, languageInfo{"Python", "python", []string{".py", ".pyw"}}},
}

func (l Language) info() (languageInfo, bool) {
	for _, entry := range languageTable {
		if entry.lang == l {
			return entry.info, true
		}
	}
	return languageInfo{}, false
}

// Name returns the display name
func (l Language) Name() string {
	if info, ok := l.info(); ok {
		return info.name
	}
	return ""
}

// Key returns the lowercase identifier used in rule files
func (l Language) Key() string {
	if info, ok := l.info(); ok {
		return info.key
	}
	return ""
}

// Extensions returns the recognized file extensions, dot included
func (l Language) Extensions() []string {
	if info, ok := l.info(); ok {
		exts := make([]string, len(info.extensions))
		copy(exts, info.extensions)
		return exts
	}
	return nil
}

// String implements fmt.Stringer
func (l Language) String() string {
	if name := l.Name(); name != "" {
		return name
	}
	return "unknown"
}

// MarshalText encodes the language by display name
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.Name()), nil
}

// Languages returns all supported languages in identification order
func Languages() []Language {
	langs := make([]Language, 0, len(languageTable))
	for _, entry := range languageTable {
		langs = append(langs, entry.lang)
	}
	return langs
}

// IdentifyLanguage maps a path (or a bare extension such as ".php")
// to its language by case-insensitive extension match.
func IdentifyLanguage(pathOrHint string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(pathOrHint))
	if ext == "" {
		return LanguageUnknown, false
	}

	for _, entry := range languageTable {
		for _, e := range entry.info.extensions {
			if e == ext {
				return entry.lang, true
			}
		}
	}
	return LanguageUnknown, false
}

// ParseLanguage parses a language hint such as "php" or "asp"
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "php":
		return LanguagePHP, nil
	case "jsp", "java":
		return LanguageJSP, nil
	case "asp", "aspx", "aspnet", "asp.net":
		return LanguageAspNet, nil
	case "python", "py":
		return LanguagePython, nil
	}
	return LanguageUnknown, fmt.Errorf("unknown language: %q", s)
}
