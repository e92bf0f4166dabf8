package errors

import (
	"net/url"
	"unicode"
	"unicode/utf8"
)

// maxPlaceNameLength bounds place names accepted from users and tables.
const maxPlaceNameLength = 128

// ValidatePlaceName validates a place name supplied by a user or a places table.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters (newlines, null bytes, ...)
//   - Valid UTF-8 (names carry accents such as "Óvalo de Pampas")
//   - Maximum length of 128 characters
func ValidatePlaceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "place name cannot be empty")
	}

	if !utf8.ValidString(name) {
		return New(ErrCodeInvalidInput, "place name is not valid UTF-8")
	}

	if utf8.RuneCountInString(name) > maxPlaceNameLength {
		return New(ErrCodeInvalidInput, "place name too long (max %d characters)", maxPlaceNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "place name contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a base URL for the compute backend or the routing provider.
// It ensures the URL parses, has a safe scheme (http or https) and names a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}
