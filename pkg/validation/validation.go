package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxChannelIDLength = 20
	MinAliasLength     = 5
	MaxAliasLength     = 20
	MinMessageLength   = 1
	MaxMessageLength   = 200
)

var (
	// ChannelIDRegex validates channel ID format
	ChannelIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// AliasRegex validates viewer display names
	AliasRegex = regexp.MustCompile(`^[a-zA-Z0-9\s_-]+$`)

	// controlCharRegex matches dangerous control characters; newline and tab
	// stay allowed
	controlCharRegex = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")

	// scriptPatterns are rejected case-insensitively in chat messages in case
	// a client redisplays them unescaped
	scriptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script[^>]*>?`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)onerror\s*=`),
		regexp.MustCompile(`(?i)onclick\s*=`),
		regexp.MustCompile(`(?i)onload\s*=`),
	}
)

// ValidateChannelID validates a channel ID. Emptiness is checked separately
// because some requests allow the ID to be omitted.
func ValidateChannelID(channelID string, required bool) error {
	if channelID == "" {
		if required {
			return fmt.Errorf("channel ID is required")
		}
		return nil
	}
	if len(channelID) > MaxChannelIDLength {
		return fmt.Errorf("channel ID is too long (max %d characters)", MaxChannelIDLength)
	}
	if !ChannelIDRegex.MatchString(channelID) {
		return fmt.Errorf("channel ID must be alphanumeric (letters, numbers, _, -)")
	}
	return nil
}

// ValidateAlias validates a viewer display name after trimming.
func ValidateAlias(alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("alias is required")
	}
	length := utf8.RuneCountInString(alias)
	if length < MinAliasLength {
		return fmt.Errorf("alias must be at least %d characters", MinAliasLength)
	}
	if length > MaxAliasLength {
		return fmt.Errorf("alias is too long (max %d characters)", MaxAliasLength)
	}
	if !AliasRegex.MatchString(alias) {
		return fmt.Errorf("alias must contain only letters, numbers, spaces, _ or -")
	}
	return nil
}

// ValidateMessage validates a chat message. Unicode (including emoji) is
// allowed; control characters other than newline/tab and script-injection
// patterns are not.
func ValidateMessage(message string) error {
	if message == "" {
		return fmt.Errorf("message is required")
	}
	length := utf8.RuneCountInString(message)
	if length > MaxMessageLength {
		return fmt.Errorf("message is too long (max %d characters)", MaxMessageLength)
	}
	if controlCharRegex.MatchString(message) {
		return fmt.Errorf("message contains invalid control characters")
	}
	for _, pattern := range scriptPatterns {
		if pattern.MatchString(message) {
			return fmt.Errorf("message contains potentially dangerous content")
		}
	}
	return nil
}
