// Package session records the audit trail of automaton runs. Every
// completed run appends one Event to two logs: the running automaton's own
// (automaton, session) log and the requester's, producing a bidirectional
// replayable trace. Streams are append-only and never read back by the
// core.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/solarapparition/agent-automata/core"
)

// EventLogDirName is the directory under each automaton's location holding
// its per-session logs.
const EventLogDirName = "event_log"

// Recorder appends events to the ordered log of an (automaton, session)
// pair. Within one stream, call order is append order; across streams no
// ordering is guaranteed. Implementations must tolerate concurrent appends
// from independent sessions.
type Recorder interface {
	Record(event core.Event, subjectID, subjectSession string) error
}

// FileRecorder appends events as JSONL to
// <location>/<automaton>/event_log/<session>.jsonl, creating the log file
// on first write. Each logically distinct stream has its own lock, so
// independent sessions never contend.
type FileRecorder struct {
	location string

	mu      sync.Mutex
	streams map[string]*sync.Mutex
}

// NewFileRecorder constructs a recorder rooted at the automata location.
func NewFileRecorder(location string) *FileRecorder {
	return &FileRecorder{
		location: location,
		streams:  make(map[string]*sync.Mutex),
	}
}

// LogPath returns the log file for an (automaton, session) pair.
func (r *FileRecorder) LogPath(subjectID, subjectSession string) string {
	return filepath.Join(r.location, subjectID, EventLogDirName, subjectSession+".jsonl")
}

// Record implements Recorder.
func (r *FileRecorder) Record(event core.Event, subjectID, subjectSession string) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	lock := r.streamLock(subjectID, subjectSession)
	lock.Lock()
	defer lock.Unlock()

	path := r.LogPath(subjectID, subjectSession)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

func (r *FileRecorder) streamLock(subjectID, subjectSession string) *sync.Mutex {
	key := subjectID + "\x1f" + subjectSession
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.streams[key]
	if !ok {
		lock = &sync.Mutex{}
		r.streams[key] = lock
	}
	return lock
}

// MemoryRecorder is a volatile Recorder storing streams in process-local
// maps. It is safe for concurrent access and best suited for tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	streams map[string][]core.Event
}

// NewMemoryRecorder constructs an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{streams: make(map[string][]core.Event)}
}

// Record implements Recorder.
func (r *MemoryRecorder) Record(event core.Event, subjectID, subjectSession string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := subjectID + "\x1f" + subjectSession
	r.streams[key] = append(r.streams[key], event)
	return nil
}

// Events returns a copy of the stream for an (automaton, session) pair in
// append order.
func (r *MemoryRecorder) Events(subjectID, subjectSession string) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	stream := r.streams[subjectID+"\x1f"+subjectSession]
	out := make([]core.Event, len(stream))
	copy(out, stream)
	return out
}

// AllEvents returns every event recorded for an automaton across all of
// its sessions. Ordering across sessions is unspecified.
func (r *MemoryRecorder) AllEvents(subjectID string) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	prefix := subjectID + "\x1f"
	for key, stream := range r.streams {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, stream...)
		}
	}
	return out
}
