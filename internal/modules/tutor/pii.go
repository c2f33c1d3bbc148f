package tutor

import "regexp"

// Digit patterns capture the preceding character in group 1 and put it back on
// replacement. RE2 has no lookbehind, so this is how a run that continues a
// decimal or a longer number is excluded.
var (
	emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	cardPattern  = regexp.MustCompile(`(^|[^\d.])\d(?:[ \-]?\d){12,18}\b`)
	phonePattern = regexp.MustCompile(`(^|[^\w.+])(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)[\s.\-]?|\d{2,4}[\s.\-])\d{3,4}[\s.\-]\d{3,4}\b`)
)

// RegexScrubber masks e-mail addresses, card-like digit runs, and phone numbers.
// Cards are matched before phones so a long digit run is not split in two.
// Phone groups must be separated, so bare decimals such as 3.14159265 pass through.
type RegexScrubber struct{}

func (RegexScrubber) Scrub(text string) string {
	if text == "" {
		return text
	}
	out := emailPattern.ReplaceAllString(text, "[redacted email]")
	out = cardPattern.ReplaceAllString(out, "${1}[redacted number]")
	out = phonePattern.ReplaceAllString(out, "${1}[redacted phone]")
	return out
}
