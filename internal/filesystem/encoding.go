package filesystem

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// LookupEncoding returns the fallback encoding for name. "none" and
// the empty string disable the fallback and yield nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return nil, nil
	case "gbk", "cp936":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251, nil
	}
	return nil, fmt.Errorf("unsupported encoding: %q", name)
}

// Decode turns raw file bytes into text. A byte-order mark selects
// UTF-8 or UTF-16. Invalid UTF-8 is decoded with fallback when every
// byte sequence is valid in it; otherwise the raw bytes are kept.
func Decode(raw []byte, fallback encoding.Encoding) string {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return string(raw[len(bomUTF8):])
	case bytes.HasPrefix(raw, bomUTF16LE):
		if text, ok := decodeStrict(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), raw); ok {
			return text
		}
	case bytes.HasPrefix(raw, bomUTF16BE):
		if text, ok := decodeStrict(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), raw); ok {
			return text
		}
	}

	if utf8.Valid(raw) || fallback == nil {
		return string(raw)
	}
	if text, ok := decodeStrict(fallback, raw); ok {
		return text
	}
	return string(raw)
}

// decodeStrict decodes raw and rejects output containing replacement
// characters
func decodeStrict(enc encoding.Encoding, raw []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
