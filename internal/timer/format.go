package timer

import "fmt"

// FormatTime renders elapsed seconds as HH:MM:SS, or MM:SS when under an
// hour. Negative input clamps to zero.
func FormatTime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
