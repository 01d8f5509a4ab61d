// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"strings"
	"sync"
)

// Entry is one diagnostic of a Report.
type Entry struct {
	Device string
	Op     string
	Err    error
}

// String returns the diagnostic text. Build errors include the full
// compiler log.
func (e Entry) String() string {
	msg := e.Err.Error()
	var be *BuildError
	if errors.As(e.Err, &be) && strings.Contains(be.Log, "\n") {
		msg += "\n" + be.Log
	}
	return e.Device + ": " + e.Op + ": " + msg
}

// Report collects diagnostics from devices. A nil *Report discards them.
//
// Thread safety: Report is safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	entries []Entry
}

// Add appends err under device and op. A nil err is ignored.
func (r *Report) Add(device, op string, err error) {
	if r == nil || err == nil {
		return
	}
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Device: device, Op: op, Err: err})
	r.mu.Unlock()
}

// Entries returns a copy of the collected diagnostics.
func (r *Report) Entries() []Entry {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Merge appends the diagnostics of o.
func (r *Report) Merge(o *Report) {
	if r == nil || o == nil || r == o {
		return
	}
	es := o.Entries()
	r.mu.Lock()
	r.entries = append(r.entries, es...)
	r.mu.Unlock()
}

// Reset discards all diagnostics.
func (r *Report) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Err joins every collected error, or returns nil.
func (r *Report) Err() error {
	es := r.Entries()
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e.Err
	}
	return errors.Join(errs...)
}

// String returns one diagnostic per line.
func (r *Report) String() string {
	var sb strings.Builder
	for _, e := range r.Entries() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
