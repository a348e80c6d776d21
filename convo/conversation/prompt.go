package conversation

import (
	"strings"
	"time"
)

const (
	systemPrefix  = "System: "
	datePrefix    = "Date: "
	sectionHeader = "\nConversation:\n"

	// generationMarker tells the model where to continue.
	generationMarker = "\nAssistant:"

	dateLayout = "2006-01-02"
)

// renderPrompt lays out the prompt as newline-joined parts. Turn parts carry their
// own trailing newline, which leaves a blank line between consecutive turns.
func renderPrompt(system string, now time.Time, turns []Turn, latest string) string {
	parts := make([]string, 0, len(turns)+4)
	parts = append(parts,
		systemPrefix+system,
		datePrefix+now.Format(dateLayout),
		sectionHeader,
	)
	for _, t := range turns {
		parts = append(parts, t.String()+"\n")
	}
	parts = append(parts, RoleUser.Label()+": "+latest+generationMarker)
	return strings.Join(parts, "\n")
}
