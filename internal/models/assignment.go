package models

// TagAssignment is the assignment service's answer to "who holds this tag".
type TagAssignment struct {
	Assigned bool    `json:"assigned"`
	Person   *Person `json:"person,omitempty"`
}

// AssignmentResult is the outcome of committing a tag to a person.
// PreviousTag is an audit value: the tag the person held before this
// commit, reported verbatim by the server and never derived locally.
type AssignmentResult struct {
	Success     bool   `json:"success"`
	PreviousTag string `json:"previous_tag,omitempty"`
	Message     string `json:"message,omitempty"`
}
