package jira

// User is an entry of the assignable-user search.
type User struct {
	Name         string `json:"name"`
	Key          string `json:"key,omitempty"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// Issue is the subset of an issue snapshot the dialogs display.
type Issue struct {
	Key    string `json:"key"`
	Self   string `json:"self,omitempty"`
	Fields Fields `json:"fields"`
}

// Fields represents the inner fields of a JIRA issue
type Fields struct {
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	Assignee    *User  `json:"assignee"` // nullable
}

// Status represents the status field of the issue
type Status struct {
	Name string `json:"name"`
}

// Comment is the result of a comment creation.
type Comment struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}
