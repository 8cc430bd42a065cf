package shared

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+\.]+$`)
)

// ValidateEmail checks length and basic email shape
func ValidateEmail(email string) error {
	if len(email) > 200 {
		return NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

// ValidatePhone allows digits, spaces, dots, hyphens, parentheses and a plus sign
func ValidatePhone(phone string) error {
	if len(phone) > 50 {
		return NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if !phonePattern.MatchString(phone) {
		return NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

// ValidateURL accepts absolute http(s) URLs
func ValidateURL(raw, field string) error {
	if len(raw) > 500 {
		return NewDomainError("INVALID_URL", field+" cannot exceed 500 characters")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewDomainError("INVALID_URL", field+" must be an absolute http(s) URL")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the lower-cased domain part of an email, or empty string
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// NormalizeTags trims, lower-cases and de-duplicates tags, keeping first-seen order
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
