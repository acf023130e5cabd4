package formation

import "github.com/pkg/errors"

var ErrNotFound = errors.New("formation not found")

// Formation is a course users can request to join.
type Formation struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	RecruiterID   *int   `json:"recruiterId,omitempty"`
	Capacity      int    `json:"capacity"`
	EnrolledCount int    `json:"enrolledCount"`
}

// HasRecruiter reports whether a recruiter is assigned to the formation.
func (f Formation) HasRecruiter() bool {
	return f.RecruiterID != nil
}

// SeatsLeft returns the number of free seats; formations without capacity are unbounded (-1).
func (f Formation) SeatsLeft() int {
	if f.Capacity <= 0 {
		return -1
	}
	if left := f.Capacity - f.EnrolledCount; left > 0 {
		return left
	}
	return 0
}

func (f Formation) IsFull() bool {
	return f.SeatsLeft() == 0
}

// Ref is the formation reference embedded in other backend payloads.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}
