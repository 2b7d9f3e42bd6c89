package core

import (
	"time"

	"github.com/google/uuid"
)

// Action names which sub-automaton to invoke and with what input. It is
// the sole outcome of planning; future variants (parallel fan-out,
// self-modification) would extend this rather than overload Request.
type Action struct {
	AutomatonID string
	Request     string
}

// Step is the immutable record of one orchestration-loop iteration. The
// ordered step sequence is the loop's working memory: it is only appended
// to within a run, never pruned or rewritten.
type Step struct {
	// Reflection lines produced before planning; nil when no reflector is
	// wired.
	Reflection []string
	// PlanText is the raw planner output the action was parsed from.
	PlanText string
	// Action is the delegation that was taken.
	Action Action
	// Result is the delegated sub-automaton's result text.
	Result string
}

// Event is the persisted audit record of one completed automaton run.
// Every run produces exactly one Event, appended to both the running
// automaton's own session log and the requester's, giving a bidirectional
// replayable trace.
type Event struct {
	Requester      string `json:"requester"`
	SubAutomatonID string `json:"sub_automaton_name"`
	Input          string `json:"input"`
	Result         string `json:"result"`
	Timestamp      string `json:"timestamp"`
}

// NewEvent builds an Event stamped with the current time.
func NewEvent(requester, subAutomatonID, input, result string) Event {
	return Event{
		Requester:      requester,
		SubAutomatonID: subAutomatonID,
		Input:          input,
		Result:         result,
		Timestamp:      TimestampID(),
	}
}

// TimestampID returns a sortable timestamp identifier in UTC.
func TimestampID() string {
	return time.Now().UTC().Format("20060102T150405.000000")
}

// NewSessionID generates a fresh session identifier: timestamp-prefixed so
// log files sort chronologically, uuid-suffixed so concurrent builds never
// collide.
func NewSessionID() string {
	return time.Now().UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}
