package util

import "strings"

// Private-use codepoints standing in for the M0R grammar's reserved
// characters inside marker text. Text that already contains one of these
// codepoints does not survive an escape/unescape round trip, and neither
// does a literal backslash followed by 'n', which decodes as a line break.
const (
	EscapedColon     = '\ue000'
	EscapedComma     = '\ue001'
	EscapedBracket   = '\ue002'
	EscapedSemicolon = '\ue003'
	EscapedAngle     = '\ue004'
)

var textEscaper = strings.NewReplacer(
	"\n", `\n`,
	":", string(EscapedColon),
	",", string(EscapedComma),
	"]", string(EscapedBracket),
	";", string(EscapedSemicolon),
	">", string(EscapedAngle),
)

var textUnescaper = strings.NewReplacer(
	string(EscapedColon), ":",
	string(EscapedComma), ",",
	string(EscapedBracket), "]",
	string(EscapedSemicolon), ";",
	string(EscapedAngle), ">",
	`\n`, "\n",
)

// EscapeText makes a marker label safe to embed in an M0R positions entry.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	return textUnescaper.Replace(s)
}

// HasReservedCodepoint reports whether s already contains one of the escape
// codepoints and would therefore be altered by a round trip.
func HasReservedCodepoint(s string) bool {
	return strings.ContainsAny(s, string([]rune{
		EscapedColon, EscapedComma, EscapedBracket, EscapedSemicolon, EscapedAngle,
	}))
}

// HasLiteralNewlineEscape reports whether s contains a backslash followed by
// 'n', which UnescapeText turns into a line break.
func HasLiteralNewlineEscape(s string) bool {
	return strings.Contains(s, `\n`)
}
