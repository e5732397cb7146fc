package actions

import "strings"

// Event is an action event emitted by the host when a user presses a bound control.
type Event struct {
	Service string       `json:"service"`
	Type    string       `json:"type"`
	Subtype string       `json:"subtype,omitempty"`
	Entity  IssueContext `json:"entity"`
}

// IssueContext is the issue snapshot taken when the message was rendered.
type IssueContext struct {
	BaseURL string `json:"baseUrl"`
	Issue   Issue  `json:"issue"`
}

// Issue is the issue part of an IssueContext.
type Issue struct {
	Key      string    `json:"key"`
	URL      string    `json:"url,omitempty"`
	Subject  string    `json:"subject,omitempty"`
	Assignee *Assignee `json:"assignee,omitempty"`
}

// Assignee is the user an issue is assigned to.
type Assignee struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// SelectedUser is the user picked in the assign dialog.
type SelectedUser struct {
	Email      string `json:"email"`
	PrettyName string `json:"prettyName"`
	Name       string `json:"name,omitempty"`
}

// Event types understood by every service.
const (
	TypeOpen   = "openDialog"
	TypeSubmit = "performDialogAction"
	TypeClose  = "closeDialog"
)

type intent int

const (
	intentUnknown intent = iota
	intentOpen
	intentSubmit
	intentClose
)

// intents maps event types, including the per-service aliases, to what they ask for.
var intents = map[string]intent{
	TypeOpen:             intentOpen,
	"assignDialog":       intentOpen,
	"commentDialog":      intentOpen,
	TypeSubmit:           intentSubmit,
	"assignIssue":        intentSubmit,
	"commentIssue":       intentSubmit,
	TypeClose:            intentClose,
	"closeAssignDialog":  intentClose,
	"closeCommentDialog": intentClose,
}

// intentOf resolves the event type, falling back to the subtype.
func intentOf(ev Event) intent {
	if i, ok := intents[strings.TrimSpace(ev.Type)]; ok {
		return i
	}
	return intents[strings.TrimSpace(ev.Subtype)]
}

// binding is one action control bound into a dialog or message.
type binding struct {
	id      string
	typ     string
	subtype string
	label   string
}

// bind builds the host action map for bindings owned by service.
func bind(service string, entity IssueContext, bindings ...binding) map[string]any {
	out := make(map[string]any, len(bindings))
	for _, b := range bindings {
		data := map[string]any{"entity": entity, "type": b.typ}
		if b.subtype != "" {
			data["subtype"] = b.subtype
		}
		out[b.id] = map[string]any{
			"service": service,
			"label":   b.label,
			"data":    data,
		}
	}
	return out
}
