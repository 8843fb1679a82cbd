package models

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Separator joins a subdomain label to its parent domain.
const Separator = "."

const maxLabelLength = 63

var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// NormalizeDomainName trims and lower-cases a top-level name and checks it is a
// single label. Names containing a separator are rejected rather than treated
// as subdomain attempts.
func NormalizeDomainName(raw string) (string, error) {
	name, err := foldName(raw)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", invalidName("domain name is required")
	}
	if strings.Contains(name, Separator) {
		return "", invalidName("domain must be a top-level domain")
	}
	if err := checkLabel(name); err != nil {
		return "", err
	}
	return name, nil
}

// NormalizeSubdomainName normalizes a subdomain given either as a bare label
// ("test") or qualified by its parent ("test.com" under "com"). The parent must
// already be normalized. Returns the bare label.
func NormalizeSubdomainName(parent, raw string) (string, error) {
	name, err := foldName(raw)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", invalidName("subdomain name is required")
	}
	name = strings.TrimSuffix(name, Separator+parent)
	if strings.Contains(name, Separator) {
		return "", invalidName("subdomain must be a single label under its parent")
	}
	if err := checkLabel(name); err != nil {
		return "", err
	}
	return name, nil
}

// FQDN joins a subdomain label and its parent.
func FQDN(label, parent string) string {
	return label + Separator + parent
}

// foldName trims surrounding whitespace and lower-cases ASCII letters. Any
// non-ASCII byte is rejected, so no Unicode case folding can map a foreign
// rune onto a registered name.
func foldName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	b := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= utf8.RuneSelf {
			return "", invalidName("name may contain only a-z, 0-9 and inner hyphens")
		}
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b), nil
}

func checkLabel(label string) error {
	if len(label) > maxLabelLength {
		return invalidName("name must be at most 63 characters")
	}
	if !labelPattern.MatchString(label) {
		return invalidName("name may contain only a-z, 0-9 and inner hyphens")
	}
	return nil
}
