package chat

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CommandDelimiter separates the natural-language half of a model reply
// from the JSON command half. The system prompt instructs the model to
// emit exactly this token between the two parts.
const CommandDelimiter = "###COMMAND###"

// flexID accepts a JSON string or number. Fine-tuned models occasionally
// echo numeric ids even though ours are uuid strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// flexBool accepts a JSON bool or the strings "true"/"false".
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" || s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f = flexBool(v)
	return nil
}

// RawCommand is the unvalidated payload parsed out of a model reply.
// Nothing downstream of the Normalizer consumes it.
type RawCommand struct {
	Action       string   `json:"action"`
	Date         string   `json:"date"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Title        string   `json:"title"`
	ID           flexID   `json:"id"`
	Memo         string   `json:"memo"`
	URL          string   `json:"url"`
	Notification string   `json:"notification"`
	Repeat       string   `json:"repeat"`
	CheckBox     flexBool `json:"check_box"`
}

// ExtractCommand splits a model reply into the natural-language part and
// the command payload after the delimiter. It has no side effects.
func ExtractCommand(reply string) (string, *RawCommand, error) {
	idx := strings.Index(reply, CommandDelimiter)
	if idx < 0 {
		return "", nil, &ExtractionError{Detail: "reply has no " + CommandDelimiter + " delimiter"}
	}

	natural := strings.TrimSpace(reply[:idx])
	payload := strings.TrimSpace(reply[idx+len(CommandDelimiter):])

	// Models sometimes wrap the JSON part in a markdown fence.
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")
	payload = strings.TrimSpace(payload)

	var raw RawCommand
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return "", nil, &ExtractionError{Detail: "command payload is not valid JSON: " + err.Error()}
	}

	return natural, &raw, nil
}
