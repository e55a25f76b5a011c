package usecase

import (
	"regexp"
	"strings"
)

// Denylist filters applied in order. This removes casual script injection;
// it is not an HTML sanitizer and does not try to be one.
var sanitizeSteps = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b.*?</script>`),
	regexp.MustCompile(`(?is)<style\b.*?</style>`),
	regexp.MustCompile(`<[^>]*>`),
	regexp.MustCompile(`(?i)javascript:[^)]*\)`),
	regexp.MustCompile(`(?i)on\w+=[^)]*\)`),
	// Leftover scheme or handler prefixes with no call to swallow.
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\bon\w+=`),
}

// SanitizeMessage strips markup and script vectors from message content.
// Anything that is not a string (nil, numbers, objects) yields "".
func SanitizeMessage(content any) string {
	switch v := content.(type) {
	case string:
		return Sanitize(v)
	case *string:
		if v == nil {
			return ""
		}
		return Sanitize(*v)
	default:
		return ""
	}
}

// Sanitize applies the denylist until the text stops changing, so removing
// one pattern can never expose another one. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	for {
		next := s
		for _, re := range sanitizeSteps {
			next = re.ReplaceAllString(next, "")
		}
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
}
