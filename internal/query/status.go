package query

import "time"

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// State is a snapshot of a cache entry.
type State struct {
	Status    Status
	Data      any
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Stale     bool
}
