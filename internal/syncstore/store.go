// Package syncstore keep decrypted user document for logged in account and
// push every change to the remote document store.
package syncstore

//
// store.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/notify"
	"gitlab.com/kabes/go-relay/internal/seal"
)

var ErrAuthenticationFailed = aerr.New("authentication failed").WithTag(aerr.AuthError).
	WithUserMsg("can't log in; invalid key or damaged account data")

// RemoteStore is remote key/value store of encrypted documents.
type RemoteStore interface {
	GetData(ctx context.Context, key string) (*string, error)
	PutData(ctx context.Context, key, blob string) error
}

// SecretStore persist account secret on local device.
type SecretStore interface {
	LoadSecret(ctx context.Context) (string, error)
	SaveSecret(ctx context.Context, secret string) error
	RemoveSecret(ctx context.Context) error
}

type Store struct {
	remote  RemoteStore
	secrets SecretStore
	hub     *notify.Hub[Event]
	events  *common.EventLog

	// resumeMu serialize Resume calls.
	resumeMu sync.Mutex
	// pushMu serialize pushes; acquired before mu.
	pushMu sync.Mutex

	mu          sync.Mutex
	secret      string
	key         seal.Key
	loggingIn   bool
	initialized bool
	doc         model.UserDocument
	// version is incremented on every document change; pushed is version of last
	// successfully pushed document.
	version     uint64
	pushed      uint64
	pending     int
	lastSyncErr error
}

func New(remote RemoteStore, secrets SecretStore) *Store {
	return &Store{
		remote:  remote,
		secrets: secrets,
		hub:     notify.NewHub[Event](),
		events:  common.NewEventLog("syncstore", "sync"),
		doc:     model.DefaultDocument(),
	}
}

// Shutdown wait for in-flight push and close notifications.
func (s *Store) Shutdown(_ context.Context) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.hub.Close()
	s.events.Close()

	return nil
}

//------------------------------------------------------------------------------

// State return current authentication state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	switch {
	case s.key.Valid():
		return StateAuthenticated
	case s.loggingIn:
		return StateLoggingIn
	default:
		return StateLoggedOut
	}
}

// Authenticated report true when store hold valid key.
func (s *Store) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Initialized report true after first Resume finished.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initialized
}

// Data return copy of current document; default document when logged out.
func (s *Store) Data() model.UserDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.Clone()
}

// Syncing report true when any push is waiting or in progress.
func (s *Store) Syncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending > 0
}

// LastSyncError return error of the last push or nil when it succeeded.
func (s *Store) LastSyncError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSyncErr
}

// Subscribe register for state change events.
func (s *Store) Subscribe(buf int) (<-chan Event, func()) {
	return s.hub.Subscribe(buf)
}

func (s *Store) publish(kind EventKind, err error) {
	s.mu.Lock()
	event := Event{Kind: kind, State: s.stateLocked(), Syncing: s.pending > 0, Err: err}
	s.mu.Unlock()

	s.hub.Publish(event)
}

//------------------------------------------------------------------------------

// Login derive key from secret, load and decrypt account document.
// Malformed secret leave store unchanged; any other failure drop current
// session and leave store logged out. Persisted secret is not touched on failure.
func (s *Store) Login(ctx context.Context, secret string) error {
	logger := log.Ctx(ctx)

	key, err := seal.DeriveKey(secret)
	if err != nil {
		loginsTotal.WithLabelValues(resultError).Inc()

		return err //nolint:wrapcheck
	}

	s.mu.Lock()
	s.loggingIn = true
	s.mu.Unlock()
	s.publish(EventAuthChanged, nil)

	doc, err := s.fetchDocument(ctx, secret, key)
	if err != nil {
		s.mu.Lock()
		hadSession := s.key.Valid()
		s.secret = ""
		s.key = seal.Key{}
		s.loggingIn = false
		s.doc = model.DefaultDocument()
		s.version++
		s.pushed = s.version
		s.lastSyncErr = nil
		s.mu.Unlock()
		s.publish(EventAuthChanged, err)

		if hadSession {
			s.publish(EventDocumentChanged, nil)
		}

		loginsTotal.WithLabelValues(resultError).Inc()
		logger.Info().Err(err).Str(common.LogKeyAuthResult, common.LogAuthResultFailed).
			Msg("syncstore: login failed")
		s.events.Errorf("login failed: %v", err)

		return err
	}

	s.mu.Lock()
	s.secret = secret
	s.key = key
	s.loggingIn = false
	s.doc = doc
	s.version++
	s.pushed = s.version
	s.lastSyncErr = nil
	s.mu.Unlock()

	loginsTotal.WithLabelValues(resultSuccess).Inc()
	logger.Info().Str(common.LogKeyAuthResult, common.LogAuthResultSuccess).
		Int("subscriptions", len(doc.Subscriptions)).
		Int("queue", len(doc.Queue)).
		Msg("syncstore: logged in")
	s.events.Printf("logged in")

	if err := s.secrets.SaveSecret(ctx, secret); err != nil {
		logger.Warn().Err(err).Msg("syncstore: persist secret failed")
	}

	s.publish(EventAuthChanged, nil)
	s.publish(EventDocumentChanged, nil)

	return nil
}

func (s *Store) fetchDocument(ctx context.Context, secret string, key seal.Key) (model.UserDocument, error) {
	blob, err := s.remote.GetData(ctx, secret)
	if err != nil {
		return model.UserDocument{}, err //nolint:wrapcheck
	}

	if blob == nil {
		log.Ctx(ctx).Debug().Msg("syncstore: no remote data; using default document")

		return model.DefaultDocument(), nil
	}

	doc, err := seal.Decrypt(*blob, key)
	if err != nil {
		return model.UserDocument{}, aerr.ApplyFor(ErrAuthenticationFailed, err)
	}

	return doc, nil
}

// Resume log in with secret persisted on device. Only first call do anything.
// When login fail, persisted secret is removed.
func (s *Store) Resume(ctx context.Context) error {
	s.resumeMu.Lock()
	defer s.resumeMu.Unlock()

	if s.Initialized() {
		return nil
	}

	defer func() {
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		s.publish(EventAuthChanged, nil)
	}()

	logger := log.Ctx(ctx)

	secret, err := s.secrets.LoadSecret(ctx)
	if err != nil {
		return aerr.Wrapf(err, "load persisted secret failed")
	}

	if secret == "" {
		logger.Debug().Msg("syncstore: no persisted secret")

		return nil
	}

	if err := s.Login(ctx, secret); err != nil {
		logger.Warn().Err(err).Msg("syncstore: resume session failed; removing persisted secret")

		if rerr := s.secrets.RemoveSecret(ctx); rerr != nil {
			logger.Error().Err(rerr).Msg("syncstore: remove persisted secret failed")
		}

		return err
	}

	return nil
}

// Logout drop key and document and remove persisted secret.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.secret = ""
	s.key = seal.Key{}
	s.loggingIn = false
	s.doc = model.DefaultDocument()
	s.version++
	s.pushed = s.version
	s.lastSyncErr = nil
	s.mu.Unlock()

	log.Ctx(ctx).Info().Msg("syncstore: logged out")
	s.events.Printf("logged out")

	s.publish(EventAuthChanged, nil)
	s.publish(EventDocumentChanged, nil)

	if err := s.secrets.RemoveSecret(ctx); err != nil {
		return aerr.Wrapf(err, "remove persisted secret failed")
	}

	return nil
}

//------------------------------------------------------------------------------

// Sync encrypt current document and push it to remote store.
func (s *Store) Sync(ctx context.Context) error {
	return s.push(ctx, true)
}

// push serialize pushes; each push send the latest document. When force is false
// and latest document is already pushed, nothing is sent.
func (s *Store) push(ctx context.Context, force bool) error {
	s.mu.Lock()
	if !s.key.Valid() {
		s.mu.Unlock()

		return nil
	}

	s.pending++
	first := s.pending == 1
	s.mu.Unlock()

	if first {
		s.publish(EventSyncingChanged, nil)
	}

	defer func() {
		s.mu.Lock()
		s.pending--
		last := s.pending == 0
		s.mu.Unlock()

		if last {
			s.publish(EventSyncingChanged, nil)
		}
	}()

	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.mu.Lock()
	secret, key, doc, version := s.secret, s.key, s.doc, s.version
	upToDate := s.pushed == version && s.lastSyncErr == nil
	s.mu.Unlock()

	logger := log.Ctx(ctx)

	if !key.Valid() || (!force && upToDate) {
		pushesTotal.WithLabelValues(resultSkipped).Inc()
		logger.Debug().Uint64("version", version).Msg("syncstore: push skipped")

		return nil
	}

	start := time.Now()
	err := s.encryptAndPut(ctx, secret, key, doc)

	pushDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	// logout or new login happened during push
	sameSession := s.secret == secret
	if sameSession {
		s.lastSyncErr = err
		if err == nil && s.pushed < version {
			s.pushed = version
		}
	}
	s.mu.Unlock()

	if err != nil {
		pushesTotal.WithLabelValues(resultError).Inc()
		logger.Error().Err(err).Uint64("version", version).Msg("syncstore: push failed")
		s.events.Errorf("push v%d failed: %v", version, err)

		if sameSession {
			s.publish(EventSyncFailed, err)
		}

		return err
	}

	pushesTotal.WithLabelValues(resultSuccess).Inc()
	logger.Debug().Uint64("version", version).Dur("duration", time.Since(start)).
		Msg("syncstore: document pushed")
	s.events.Printf("pushed v%d", version)

	return nil
}

func (s *Store) encryptAndPut(ctx context.Context, secret string, key seal.Key, doc model.UserDocument) error {
	blob, err := seal.Encrypt(doc, key)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return s.remote.PutData(ctx, secret, blob) //nolint:wrapcheck
}

//------------------------------------------------------------------------------

// mutate apply fn to current document. When fn report change, new document
// is stored and pushed to remote.
func (s *Store) mutate(ctx context.Context, op string,
	fn func(model.UserDocument) (model.UserDocument, bool),
) error {
	logger := log.Ctx(ctx)

	s.mu.Lock()
	if !s.key.Valid() {
		s.mu.Unlock()
		logger.Debug().Str("op", op).Msg("syncstore: not authenticated; mutation ignored")

		return nil
	}

	doc, changed := fn(s.doc)
	if !changed {
		s.mu.Unlock()
		logger.Debug().Str("op", op).Msg("syncstore: document not changed")

		return nil
	}

	s.doc = doc
	s.version++
	s.mu.Unlock()

	mutationsTotal.WithLabelValues(op).Inc()
	logger.Debug().Str("op", op).Msg("syncstore: document changed")
	s.publish(EventDocumentChanged, nil)

	return s.push(ctx, false)
}

func (s *Store) AddSubscription(ctx context.Context, sub model.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err //nolint:wrapcheck
	}

	log.Ctx(ctx).Debug().Object("subscription", &sub).Msg("syncstore: add subscription")

	return s.mutate(ctx, "add_subscription", func(doc model.UserDocument) (model.UserDocument, bool) {
		return doc.WithSubscription(sub)
	})
}

func (s *Store) RemoveSubscription(ctx context.Context, podcastID string) error {
	return s.mutate(ctx, "remove_subscription", func(doc model.UserDocument) (model.UserDocument, bool) {
		return doc.WithoutSubscription(podcastID)
	})
}

func (s *Store) UpdateEpisodeProgress(ctx context.Context, episodeID string, progress model.EpisodeProgress) error {
	if episodeID == "" {
		return common.ErrInvalidEpisode
	}

	return s.mutate(ctx, "update_progress", func(doc model.UserDocument) (model.UserDocument, bool) {
		return doc.WithEpisodeProgress(episodeID, progress), true
	})
}

func (s *Store) AddToQueue(ctx context.Context, episodeID string) error {
	if episodeID == "" {
		return common.ErrInvalidEpisode
	}

	return s.mutate(ctx, "add_to_queue", func(doc model.UserDocument) (model.UserDocument, bool) {
		return doc.WithQueued(episodeID)
	})
}

func (s *Store) RemoveFromQueue(ctx context.Context, episodeID string) error {
	return s.mutate(ctx, "remove_from_queue", func(doc model.UserDocument) (model.UserDocument, bool) {
		return doc.WithoutQueued(episodeID)
	})
}

// ReorderQueue replace queue with ids.
func (s *Store) ReorderQueue(ctx context.Context, ids []string) error {
	return s.mutate(ctx, "reorder_queue", func(doc model.UserDocument) (model.UserDocument, bool) {
		return doc.WithQueue(ids), true
	})
}

// SetCurrentlyPlaying set both ids; any empty id clear currently playing.
func (s *Store) SetCurrentlyPlaying(ctx context.Context, episodeID, podcastID string) error {
	cp := model.NewCurrentlyPlaying(episodeID, podcastID)

	return s.mutate(ctx, "set_currently_playing", func(doc model.UserDocument) (model.UserDocument, bool) {
		if doc.CurrentlyPlaying == cp {
			return doc, false
		}

		return doc.WithCurrentlyPlaying(cp), true
	})
}

func (s *Store) UpdatePreferences(ctx context.Context, patch model.PreferencesPatch) error {
	if err := patch.Validate(); err != nil {
		return err //nolint:wrapcheck
	}

	if patch.Empty() {
		return nil
	}

	return s.mutate(ctx, "update_preferences", func(doc model.UserDocument) (model.UserDocument, bool) {
		prefs := doc.Preferences.Merge(patch)
		if prefs == doc.Preferences {
			return doc, false
		}

		doc.Preferences = prefs

		return doc, true
	})
}

//------------------------------------------------------------------------------

// Status is summary of store state.
type Status struct {
	State         State
	Initialized   bool
	Syncing       bool
	LastSyncError error
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		State:         s.stateLocked(),
		Initialized:   s.initialized,
		Syncing:       s.pending > 0,
		LastSyncError: s.lastSyncErr,
	}
}

func (s Status) MarshalZerologObject(event *zerolog.Event) {
	event.Stringer("state", s.State).
		Bool("initialized", s.Initialized).
		Bool("syncing", s.Syncing)

	if s.LastSyncError != nil {
		event.AnErr("last_sync_error", s.LastSyncError)
	}
}

// IsAuthFailure check if err is caused by invalid secret or undecryptable data.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed) || errors.Is(err, seal.ErrInvalidSecretFormat)
}
