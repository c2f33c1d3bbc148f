package tutor

import (
	"strings"
	"testing"
)

func TestRegexScrubber(t *testing.T) {
	cases := []struct {
		in       string
		mustHave string
		mustNot  string
	}{
		{"email me at jane.doe@example.com please", "[redacted email]", "jane.doe"},
		{"call +1 415-555-0134 tomorrow", "[redacted phone]", "555-0134"},
		{"card 4111 1111 1111 1111 declined", "[redacted number]", "4111"},
		{"what is chapter 3 about?", "chapter 3", "[redacted"},
		{"reach me at (415) 555-0134", "[redacted phone]", "0134"},
		{"Why is pi 3.14159265?", "3.14159265", "[redacted"},
		{"What is 0.1+0.2, 0.30000000000000004?", "0.30000000000000004", "[redacted"},
		{"the ratio 12345678.9012345678 rounds", "12345678.9012345678", "[redacted"},
	}
	var s RegexScrubber
	for _, tc := range cases {
		got := s.Scrub(tc.in)
		if !strings.Contains(got, tc.mustHave) {
			t.Fatalf("Scrub(%q) = %q, want it to contain %q", tc.in, got, tc.mustHave)
		}
		if strings.Contains(got, tc.mustNot) {
			t.Fatalf("Scrub(%q) = %q, must not contain %q", tc.in, got, tc.mustNot)
		}
	}
}
