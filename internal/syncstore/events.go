package syncstore

//
// events.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import "github.com/rs/zerolog"

// State is authentication state of the store.
type State int

const (
	StateLoggedOut State = iota
	StateLoggingIn
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateLoggingIn:
		return "logging_in"
	case StateAuthenticated:
		return "authenticated"
	}

	return "unknown"
}

type EventKind int

const (
	// EventAuthChanged is sent on login, logout and finished resume.
	EventAuthChanged EventKind = iota
	// EventDocumentChanged is sent when document is replaced.
	EventDocumentChanged
	// EventSyncingChanged is sent when store start or finish pushing data.
	EventSyncingChanged
	// EventSyncFailed is sent when push failed.
	EventSyncFailed
)

func (e EventKind) String() string {
	switch e {
	case EventAuthChanged:
		return "auth_changed"
	case EventDocumentChanged:
		return "document_changed"
	case EventSyncingChanged:
		return "syncing_changed"
	case EventSyncFailed:
		return "sync_failed"
	}

	return "unknown"
}

// Event describe state change of the store.
type Event struct {
	Kind    EventKind
	State   State
	Syncing bool
	Err     error
}

func (e Event) MarshalZerologObject(event *zerolog.Event) {
	event.Stringer("kind", e.Kind).
		Stringer("state", e.State).
		Bool("syncing", e.Syncing)

	if e.Err != nil {
		event.Err(e.Err)
	}
}
