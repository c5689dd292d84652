package projector

import "fmt"

// Humanize formats the age of timestamp relative to now, both in epoch
// seconds. Units are never singularized ("1 minutes ago").
func Humanize(timestamp, now int64) string {
	diff := now - timestamp
	switch {
	case diff < 60:
		return "Just now"
	case diff < 3600:
		return fmt.Sprintf("%d minutes ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%d hours ago", diff/3600)
	default:
		return fmt.Sprintf("%d days ago", diff/86400)
	}
}
