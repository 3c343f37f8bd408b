package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URL validation errors
var (
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrDisallowedScheme = errors.New("URL scheme not allowed")
	ErrMissingHost      = errors.New("URL has no host")
)

const maxURLLength = 2048

// URLConstraints defines validation constraints for URLs.
type URLConstraints struct {
	AllowedSchemes []string // e.g. []string{"https", "http"}
	MaxLength      int      // maximum URL length (0 = no limit)
}

// URL validates a URL against the given constraints and returns the
// trimmed URL string.
func URL(urlStr string, constraints URLConstraints) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return "", ErrEmpty
	}
	if constraints.MaxLength > 0 && len(urlStr) > constraints.MaxLength {
		return "", fmt.Errorf("%w: URL exceeds %d characters", ErrStringTooLong, constraints.MaxLength)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Host == "" {
		return "", ErrMissingHost
	}

	if len(constraints.AllowedSchemes) > 0 {
		allowed := false
		for _, scheme := range constraints.AllowedSchemes {
			if parsed.Scheme == scheme {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fmt.Errorf("%w: got %q, allowed: %v", ErrDisallowedScheme, parsed.Scheme, constraints.AllowedSchemes)
		}
	}

	return urlStr, nil
}

// FeedURL validates a websocket feed endpoint.
func FeedURL(s string) (string, error) {
	return URL(s, URLConstraints{
		AllowedSchemes: []string{"ws", "wss"},
		MaxLength:      maxURLLength,
	})
}

// Endpoint validates an HTTP API endpoint such as the chat completions
// URL.
func Endpoint(s string) (string, error) {
	return URL(s, URLConstraints{
		AllowedSchemes: []string{"http", "https"},
		MaxLength:      maxURLLength,
	})
}
