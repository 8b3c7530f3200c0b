package domain

// StatusCode is one of the fixed lifecycle identifiers for a ticket.
type StatusCode string

const (
	StatusCreated   StatusCode = "created"
	StatusReviewed  StatusCode = "reviewed"
	StatusNotified  StatusCode = "notified"
	StatusResolving StatusCode = "resolving"
	StatusOnHold    StatusCode = "on_hold"
	StatusClosed    StatusCode = "closed"
	StatusSolved    StatusCode = "solved"
	StatusDeleted   StatusCode = "deleted"
	StatusReopened  StatusCode = "reopened"
)

// Status is a ticket lifecycle stage as stored in reference data: the
// machine value is one of the StatusCode constants, desc is what users see.
type Status struct {
	ID    int64
	Value StatusCode
	Desc  string
}

// Crit is a criticality (priority) level.
type Crit struct {
	ID    int64
	Value string
	Desc  string
}

// Center is a healthcare center tickets can be attributed to.
type Center struct {
	ID    int64
	Value string
	Desc  string
}

// Tool is the application or system a ticket concerns.
type Tool struct {
	ID    int64
	Value string
	Desc  string
}
