// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the identifiers shared by the auth API and the console.

Users, refresh sessions and request correlation IDs are all UUID version 7,
so rows and log lines sort by creation time.
*/
package uuid

import "github.com/google/uuid"

// maxRequestIDLength caps propagated correlation IDs before they reach logs.
const maxRequestIDLength = 64

// New returns a UUIDv7 string for a persisted record. It panics when the
// system entropy source fails, since no ID can be produced.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// RequestID returns a correlation ID. It never panics; it falls back to a
// random v4 when a v7 cannot be produced.
func RequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// AcceptRequestID reports whether an inbound correlation ID may be reused.
// Anything that is not a short printable token is replaced.
func AcceptRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		if r <= ' ' || r > '~' {
			return false
		}
	}
	return true
}
