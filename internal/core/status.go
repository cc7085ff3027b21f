package core

import (
	"fmt"
)

const (
	StatusPending  = "pending"
	StatusPrinting = "printing"
	StatusPrinted  = "printed"
)

// TransitionResult is the verdict of ValidateTransition. Reason is set
// whenever Allowed is false.
type TransitionResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type transition struct {
	from, to string
}

var userTransitions = map[transition]bool{
	{"", StatusPending}:             true,
	{StatusPending, StatusPrinting}: true,
	{StatusPrinting, StatusPrinted}: true,
	{StatusPrinting, StatusPending}: true,
}

var adminTransitions = map[transition]bool{
	{StatusPrinted, StatusPending}:  true,
	{StatusPrinting, StatusPrinted}: true,
}

func isCanonical(status string) bool {
	switch status {
	case StatusPending, StatusPrinting, StatusPrinted:
		return true
	}
	return false
}

// ValidateTransition decides whether an order may move from one print status
// to another. An empty from stands for an order that never had a print status.
// It has no side effects.
func ValidateTransition(from, to string, isAdmin bool) TransitionResult {
	if from != "" && !isCanonical(from) {
		return TransitionResult{Reason: fmt.Sprintf("invalid current print status %q", from)}
	}
	if !isCanonical(to) {
		return TransitionResult{Reason: fmt.Sprintf("invalid target print status %q", to)}
	}

	t := transition{from, to}
	if userTransitions[t] {
		return TransitionResult{Allowed: true}
	}
	if adminTransitions[t] {
		if isAdmin {
			return TransitionResult{Allowed: true}
		}
		return TransitionResult{Reason: fmt.Sprintf("transition %s -> %s requires admin", displayStatus(from), to)}
	}

	if from == "" {
		return TransitionResult{Reason: fmt.Sprintf("transition %s -> %s is not allowed: a new order can only become pending", displayStatus(from), to)}
	}
	return TransitionResult{Reason: fmt.Sprintf("transition %s -> %s is not allowed", from, to)}
}

func displayStatus(status string) string {
	if status == "" {
		return "(none)"
	}
	return status
}
