package note

import (
	"fmt"
	"strings"
	"time"
)

// FormatTitle expands the YYYY, MM and DD placeholders of a title format.
func FormatTitle(format string, now time.Time) string {
	if strings.TrimSpace(format) == "" {
		format = DefaultSettings().DocTitleFormat
	}
	r := strings.NewReplacer(
		"YYYY", fmt.Sprintf("%04d", now.Year()),
		"MM", fmt.Sprintf("%02d", int(now.Month())),
		"DD", fmt.Sprintf("%02d", now.Day()),
	)
	return r.Replace(format)
}
