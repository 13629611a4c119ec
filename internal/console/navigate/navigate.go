// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package navigate abstracts the console's client-side redirects.

The browser build performs a hard location change; the CLI and tests only need
to observe where the user would have been sent. Every destination is one of the
constants in the constants package (/login, /unauthorized, /session-expired).
*/
package navigate

import (
	"log/slog"
	"slices"
	"sync"
)

// Navigator performs a client-side redirect to destination.
type Navigator interface {
	Navigate(destination string)
}

// Func adapts a plain function to [Navigator].
type Func func(destination string)

// Navigate implements Navigator.
func (f Func) Navigate(destination string) { f(destination) }

// Discard ignores every redirect.
var Discard Navigator = Func(func(string) {})

// Recorder logs every redirect and keeps the history in memory.
//
// It is safe for concurrent use.
type Recorder struct {
	logger  *slog.Logger
	mu      sync.Mutex
	history []string
}

// NewRecorder builds a [Recorder]. A nil logger disables logging.
func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Navigate implements Navigator.
func (recorder *Recorder) Navigate(destination string) {
	recorder.mu.Lock()
	recorder.history = append(recorder.history, destination)
	recorder.mu.Unlock()

	if recorder.logger != nil {
		recorder.logger.Info("client_redirect", slog.String("destination", destination))
	}
}

// History returns the destinations visited so far, oldest first.
func (recorder *Recorder) History() []string {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return slices.Clone(recorder.history)
}

// Count reports how many times destination was visited.
func (recorder *Recorder) Count(destination string) int {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()

	count := 0
	for _, visited := range recorder.history {
		if visited == destination {
			count++
		}
	}
	return count
}
