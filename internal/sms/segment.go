package sms

import "strings"

// minSplitRatio keeps word-boundary splits from producing tiny fragments:
// a boundary is only used when it sits at or past 70% of the limit.
const minSplitRatio = 0.7

// SplitSegments splits a message into ordered segments of at most
// maxLength bytes each. Splits prefer the last whitespace at or before
// the limit; when that boundary falls too early, the segment is cut hard
// at maxLength. Concatenating the segments (re-inserting the collapsed
// split-point whitespace) reconstructs the original message.
func SplitSegments(message string, maxLength int) []string {
	if maxLength <= 0 {
		return []string{message}
	}
	if len(message) <= maxLength {
		return []string{message}
	}

	var segments []string
	remaining := message
	for len(remaining) > maxLength {
		cut := maxLength
		if idx := lastWhitespace(remaining[:maxLength+1]); idx >= int(float64(maxLength)*minSplitRatio) {
			cut = idx
		}
		segments = append(segments, strings.TrimRight(remaining[:cut], " \t\n"))
		remaining = strings.TrimLeft(remaining[cut:], " \t\n")
	}
	if remaining != "" {
		segments = append(segments, remaining)
	}
	return segments
}

func lastWhitespace(s string) int {
	return strings.LastIndexAny(s, " \t\n")
}
