package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// IDRegex matches room and user identifiers as issued by the office server.
	IDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

const (
	maxIDLength   = 128
	maxNameLength = 100
)

func ValidateRoomID(roomID string) error {
	return validateID(roomID, "room ID")
}

func ValidateUserID(userID string) error {
	return validateID(userID, "user ID")
}

func validateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, maxIDLength)
	}
	if !IDRegex.MatchString(id) {
		return fmt.Errorf("invalid %s format", fieldName)
	}
	return nil
}

// ValidateDisplayName checks a user or room display name. Empty names are
// allowed; the server omits them on some payloads.
func ValidateDisplayName(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("display name must be valid UTF-8")
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) > maxNameLength {
		return fmt.Errorf("display name is too long (max %d characters)", maxNameLength)
	}
	return nil
}

// ValidateURL validates a signal endpoint URL.
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be ws, wss, http, or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateVolume checks a playback volume in [0, 1].
func ValidateVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %v", volume)
	}
	return nil
}
