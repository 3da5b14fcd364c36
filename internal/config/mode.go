package config

import (
	"fmt"
	"strings"
)

const (
	ModeTalk    = "talk"
	ModeHumming = "humming"
)

// NormalizeMode canonicalizes a user-supplied synthesis mode. "song" is an
// accepted alias for humming; the empty string defaults to talk.
func NormalizeMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		mode = ModeTalk
	}
	switch mode {
	case ModeTalk, ModeHumming:
		return mode, nil
	case "song":
		return ModeHumming, nil
	default:
		return "", fmt.Errorf(
			"invalid mode %q (expected %s|%s|song)",
			raw,
			ModeTalk,
			ModeHumming,
		)
	}
}
