package models

// PersonType distinguishes the two roster populations.
type PersonType string

const (
	PersonTypeStudent PersonType = "student"
	PersonTypeStaff   PersonType = "staff"
)

// Person is a roster member owned by the remote assignment service. The
// kiosk only displays people; it never mutates them.
type Person struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Group string     `json:"group"`
	Type  PersonType `json:"type"`
}

// RosterFilter narrows roster queries sent to the assignment service.
type RosterFilter struct {
	Search string     `json:"search,omitempty"`
	Group  string     `json:"group,omitempty"`
	Type   PersonType `json:"type,omitempty"`
}
