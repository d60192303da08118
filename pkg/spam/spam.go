// Package spam flags contact messages that look automated or abusive.
package spam

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	ReasonPattern    = "Spam pattern detected"
	ReasonTooShort   = "Message too short"
	ReasonTooLong    = "Message too long"
	ReasonDisposable = "Disposable email detected"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(viagra|cialis|casino|lottery|winner|prize|click here|act now|limited time)\b`),
	regexp.MustCompile(`(?i)\b(make money|earn \$|free money|bitcoin|crypto investment)\b`),
	// three or more links
	regexp.MustCompile(`(?i)(https?://.*){3,}`),
}

var disposableDomains = []string{"tempmail", "throwaway", "mailinator", "guerrillamail", "10minutemail"}

// Result is the outcome of Detect. Reason is empty when IsSpam is false.
type Result struct {
	IsSpam bool
	Reason string
}

// Detector applies the pattern, length and sender checks.
type Detector struct {
	minLength int
	maxLength int
}

// NewDetector returns a Detector accepting messages of minLength..maxLength runes.
func NewDetector(minLength, maxLength int) *Detector {
	return &Detector{minLength: minLength, maxLength: maxLength}
}

// Detect runs the checks in order and reports the first one that trips.
func (d *Detector) Detect(message, email string) Result {
	for _, p := range patterns {
		if p.MatchString(message) {
			return Result{IsSpam: true, Reason: ReasonPattern}
		}
	}
	if hasLongRun(message, 11) {
		return Result{IsSpam: true, Reason: ReasonPattern}
	}

	n := utf8.RuneCountInString(message)
	if n < d.minLength {
		return Result{IsSpam: true, Reason: ReasonTooShort}
	}
	if n > d.maxLength {
		return Result{IsSpam: true, Reason: ReasonTooLong}
	}

	lower := strings.ToLower(email)
	for _, domain := range disposableDomains {
		if strings.Contains(lower, domain) {
			return Result{IsSpam: true, Reason: ReasonDisposable}
		}
	}

	return Result{}
}

// hasLongRun reports whether any character other than a newline repeats at
// least n times in a row, ignoring case. RE2 has no backreferences.
func hasLongRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range strings.ToLower(s) {
		if r == '\n' {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}

	return false
}
