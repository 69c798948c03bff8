package lpeg

import "github.com/Shopify/go-lua"

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isAlpha(c byte) bool { return isLower(c) || isUpper(c) }
func isCntrl(c byte) bool { return c < 0x20 || c == 0x7f }
func isGraph(c byte) bool { return c > 0x20 && c < 0x7f }
func isSpace(c byte) bool { return c == ' ' || (c >= '\t' && c <= '\r') }

// localeClasses follows the C locale character classes.
var localeClasses = []struct {
	name string
	in   func(byte) bool
}{
	{"alnum", func(c byte) bool { return isAlpha(c) || isDigit(c) }},
	{"alpha", isAlpha},
	{"cntrl", isCntrl},
	{"digit", isDigit},
	{"graph", isGraph},
	{"lower", isLower},
	{"print", func(c byte) bool { return c == ' ' || isGraph(c) }},
	{"punct", func(c byte) bool { return isGraph(c) && !isAlpha(c) && !isDigit(c) }},
	{"space", isSpace},
	{"upper", isUpper},
	{"xdigit", func(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }},
}

// locale fills the given table, or a new one, with a set pattern per class.
func (lib *library) locale(l *lua.State) int {
	if l.IsNoneOrNil(1) {
		l.CreateTable(0, len(localeClasses))
	} else {
		lua.CheckType(l, 1, lua.TypeTable)
		l.SetTop(1)
	}
	for _, class := range localeClasses {
		var set charset
		for c := 0; c < 256; c++ {
			if class.in(byte(c)) {
				set.add(byte(c))
			}
		}
		pushPattern(l, newSet(set))
		l.SetField(-2, class.name)
	}
	return 1
}
