package domain

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReopened Status = "reopened"
	StatusClosed   Status = "closed"
)

// legacy values written by the first version of the history file
var legacyStatus = map[string]Status{
	"ativa":    StatusActive,
	"reaberta": StatusReopened,
	"fechada":  StatusClosed,
}

func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch Status(v) {
	case StatusActive, StatusReopened, StatusClosed:
		return Status(v), nil
	}
	if st, ok := legacyStatus[v]; ok {
		return st, nil
	}
	if v == "" {
		return "", fmt.Errorf("status is empty")
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// IsOpen reports whether the posting was still listed at the last run.
func (s Status) IsOpen() bool {
	return s == StatusActive || s == StatusReopened
}
