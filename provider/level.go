package provider

import (
	"fmt"
	"strings"
)

// ErrorCorrectionLevel is the QR-code redundancy setting. Only the four
// declared values are valid; anything else is rejected at construction.
type ErrorCorrectionLevel int

const (
	Low ErrorCorrectionLevel = iota
	Medium
	Quartile
	High
)

// Valid reports whether l is one of the four defined levels.
func (l ErrorCorrectionLevel) Valid() bool {
	switch l {
	case Low, Medium, Quartile, High:
		return true
	}
	return false
}

// Letter returns the single-character code used on the wire ("L", "M", "Q"
// or "H"). It returns an empty string for an undefined level.
func (l ErrorCorrectionLevel) Letter() string {
	switch l {
	case Low:
		return "L"
	case Medium:
		return "M"
	case Quartile:
		return "Q"
	case High:
		return "H"
	}
	return ""
}

func (l ErrorCorrectionLevel) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case Quartile:
		return "quartile"
	case High:
		return "high"
	}
	return fmt.Sprintf("ErrorCorrectionLevel(%d)", int(l))
}

// ParseErrorCorrectionLevel accepts either the wire letter (L, M, Q, H) or
// the level name, case-insensitively.
func ParseErrorCorrectionLevel(s string) (ErrorCorrectionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "low":
		return Low, nil
	case "m", "medium":
		return Medium, nil
	case "q", "quartile":
		return Quartile, nil
	case "h", "high":
		return High, nil
	}
	return 0, fmt.Errorf("%w: unknown error correction level %q", ErrInvalidArgument, s)
}
