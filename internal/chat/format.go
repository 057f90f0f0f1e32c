package chat

import (
	"fmt"
	"strings"

	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

// FormatResponse produces the final user-facing string. List results get
// one numbered line per entry appended after the natural-language reply;
// everything else returns the reply untouched (the structured result
// travels alongside it as metadata, never interpolated into the prose).
func FormatResponse(natural string, res *Result) string {
	if res == nil || len(res.Entries) == 0 {
		return natural
	}
	switch res.Action {
	case domain.ActionRead, domain.ActionMonthRead:
	default:
		return natural
	}

	var sb strings.Builder
	sb.WriteString(natural)
	for i, e := range res.Entries {
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "%d. %s ~ %s: %s", i+1, e.StartTime, e.EndTime, e.Title)
	}
	return sb.String()
}
