package lexer

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// fallbackChain is the deterministic, ordered list of codepages tried after
// UTF-8 fails to decode cleanly. Legacy 4GL corpora in this domain are
// overwhelmingly authored on Korean or Japanese Windows codepages, so those
// are tried first.
var fallbackChain = []struct {
	name string
	enc  encoding.Encoding
}{
	{"euc-kr", korean.EUCKR},
	{"shift-jis", japanese.ShiftJIS},
	{"gbk", simplifiedchinese.GBK},
	{"big5", traditionalchinese.Big5},
}

// Decode turns raw source bytes into text, adopting the first candidate in
// the fallback chain (UTF-8 first) that decodes without producing the
// Unicode replacement character. The chosen codepage name is returned for
// diagnostics; "utf-8" is returned when no fallback was needed.
func Decode(raw []byte) (text string, codepage string) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}

	for _, candidate := range fallbackChain {
		decoded, err := candidate.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		if !containsReplacementChar(decoded) {
			return string(decoded), candidate.name
		}
	}

	// Nothing decoded cleanly: fall back to a lossy UTF-8 reinterpretation
	// so the lexer still has something to tokenize. The caller may record a
	// mojibake diagnostic.
	return string(raw), "unknown"
}

func containsReplacementChar(b []byte) bool {
	s := string(b)
	for _, r := range s {
		if r == utf8.RuneError {
			return true
		}
	}
	return false
}

// MojibakeRatio reports the fraction of runes in text that are the Unicode
// replacement character. Other unexpected or non-printable runes are not
// counted. It is never used to change analysis outcomes, only surfaced as a
// diagnostic.
func MojibakeRatio(text string) float64 {
	if text == "" {
		return 0
	}
	total := 0
	suspect := 0
	for _, r := range text {
		total++
		if r == utf8.RuneError {
			suspect++
		}
	}
	return float64(suspect) / float64(total)
}
