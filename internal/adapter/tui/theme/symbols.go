package theme

import (
	"os"
	"strings"
)

// SymbolSet holds the widget glyphs so ASCII terminals get a readable fallback.
type SymbolSet struct {
	Error    string
	Info     string
	Chat     string
	Ellipsis string
	User     string
}

var unicodeSymbols = SymbolSet{
	Error:    "\u2717",
	Info:     "\u25CF",
	Chat:     "\U0001F4AC",
	Ellipsis: "\u2026",
	User:     "You",
}

var asciiSymbols = SymbolSet{
	Error:    "[ERR]",
	Info:     "[i]",
	Chat:     "[chat]",
	Ellipsis: "...",
	User:     "You",
}

// DetectUnicodeSupport checks whether the terminal likely supports Unicode.
// PORTFOLIO_ASCII_SYMBOLS=1 forces ASCII; otherwise the locale decides.
func DetectUnicodeSupport() bool {
	if v := os.Getenv("PORTFOLIO_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		return false
	}

	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		val := strings.ToLower(os.Getenv(key))
		if strings.Contains(val, "utf-8") || strings.Contains(val, "utf8") {
			return true
		}
	}

	// Most modern terminals support Unicode.
	return true
}

// InitSymbols sets the package-level Symbol* variables from terminal
// capabilities. init calls it once; tests may call it again after changing
// the environment.
func InitSymbols() {
	set := unicodeSymbols
	if !DetectUnicodeSupport() {
		set = asciiSymbols
	}

	SymbolError = set.Error
	SymbolInfo = set.Info
	SymbolChat = set.Chat
	SymbolEllipsis = set.Ellipsis
	SymbolUser = set.User
}

func init() {
	InitSymbols()
}
