// Package feedback stores agent feedback (issues, improvements, questions)
// in a local SQLite database.
package feedback

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

type Type string

const (
	TypeIssue       Type = "issue"
	TypeImprovement Type = "improvement"
	TypeQuestion    Type = "question"
	TypeCompliance  Type = "compliance"
	TypeOther       Type = "other"
)

type Status string

const (
	StatusNew          Status = "new"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in_progress"
	StatusResolved     Status = "resolved"
	StatusClosed       Status = "closed"
	StatusRejected     Status = "rejected"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var (
	Types      = []Type{TypeIssue, TypeImprovement, TypeQuestion, TypeCompliance, TypeOther}
	Statuses   = []Status{StatusNew, StatusAcknowledged, StatusInProgress, StatusResolved, StatusClosed, StatusRejected}
	Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

	ErrNotFound      = errors.New("feedback not found")
	ErrInvalidStatus = errors.New("invalid feedback status")
)

// ParseType returns TypeOther for unrecognised input; ok reports whether the
// input was recognised.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Types, t) {
		return t, true
	}
	return TypeOther, false
}

// ParsePriority returns PriorityMedium for unrecognised input.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Priorities, p) {
		return p, true
	}
	return PriorityMedium, false
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Statuses, st) {
		return st, nil
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrInvalidStatus, s, joinStatuses())
}

func joinStatuses() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

type Comment struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Item struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Comments    []Comment `json:"comments,omitempty"`
}

// Submission is the input to Store.Submit.
type Submission struct {
	Type        Type
	Title       string
	Description string
	Priority    Priority
	Tags        []string
}

// Filter narrows List. Zero values match everything; Limit <= 0 means no limit.
type Filter struct {
	Type     Type
	Status   Status
	Priority Priority
	Tag      string
	Limit    int
}

type Stats struct {
	Total      int              `json:"total"`
	ByType     map[Type]int     `json:"by_type"`
	ByStatus   map[Status]int   `json:"by_status"`
	ByPriority map[Priority]int `json:"by_priority"`
}

func newStats() *Stats {
	s := &Stats{
		ByType:     make(map[Type]int, len(Types)),
		ByStatus:   make(map[Status]int, len(Statuses)),
		ByPriority: make(map[Priority]int, len(Priorities)),
	}
	for _, t := range Types {
		s.ByType[t] = 0
	}
	for _, st := range Statuses {
		s.ByStatus[st] = 0
	}
	for _, p := range Priorities {
		s.ByPriority[p] = 0
	}
	return s
}
