package shortener

import (
	"fmt"
	"net/url"
	"regexp"
)

var (
	urlPattern  = regexp.MustCompile(`^(http|https)://[^ "]+$`)
	codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: original url is required", ErrInvalidArgument)
	}

	if !urlPattern.MatchString(rawURL) {
		return fmt.Errorf("%w: invalid url format", ErrInvalidArgument)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid url format", ErrInvalidArgument)
	}

	return nil
}

// ValidateCode checks a caller supplied short code.
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return fmt.Errorf("%w: custom code must be 1-64 letters, digits, '-' or '_'", ErrInvalidArgument)
	}

	return nil
}
