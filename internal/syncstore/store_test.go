package syncstore

//
// store_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gitlab.com/kabes/go-relay/internal/assert"
	"gitlab.com/kabes/go-relay/internal/model"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/seal"
)

type fakeRemote struct {
	mu     sync.Mutex
	blobs  map[string]string
	puts   int
	getErr error
	putErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{blobs: make(map[string]string)}
}

func (f *fakeRemote) GetData(_ context.Context, key string) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	blob, ok := f.blobs[key]
	if !ok {
		return nil, nil
	}

	return &blob, nil
}

func (f *fakeRemote) PutData(_ context.Context, key, blob string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return f.putErr
	}

	f.puts++
	f.blobs[key] = blob

	return nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.puts
}

func (f *fakeRemote) document(t *testing.T, secret string) model.UserDocument {
	t.Helper()

	f.mu.Lock()
	blob := f.blobs[secret]
	f.mu.Unlock()

	key, err := seal.DeriveKey(secret)
	assert.NoErr(t, err)

	doc, err := seal.Decrypt(blob, key)
	assert.NoErr(t, err)

	return doc
}

type fakeSecrets struct {
	mu     sync.Mutex
	secret string
}

func (f *fakeSecrets) LoadSecret(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.secret, nil
}

func (f *fakeSecrets) SaveSecret(_ context.Context, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.secret = secret

	return nil
}

func (f *fakeSecrets) RemoveSecret(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.secret = ""

	return nil
}

func (f *fakeSecrets) get() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.secret
}

func newSecret(t *testing.T) string {
	t.Helper()

	secret, err := seal.GenerateSecret()
	assert.NoErr(t, err)

	return secret
}

func prepare(t *testing.T) (*Store, *fakeRemote, *fakeSecrets) {
	t.Helper()

	remote := newFakeRemote()
	secrets := &fakeSecrets{}
	store := New(remote, secrets)

	t.Cleanup(func() { _ = store.Shutdown(context.Background()) })

	return store, remote, secrets
}

//------------------------------------------------------------------------------

func TestLoginEmptyRemote(t *testing.T) {
	ctx := context.Background()
	store, remote, secrets := prepare(t)
	secret := newSecret(t)

	assert.Equal(t, store.State(), StateLoggedOut)
	assert.NoErr(t, store.Login(ctx, secret))

	assert.True(t, store.Authenticated())
	assert.Equal(t, secrets.get(), secret)
	assert.Equal(t, store.Data(), model.DefaultDocument())
	assert.Equal(t, remote.pushCount(), 0)
}

func TestLoginExistingDocument(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := prepare(t)
	secret := newSecret(t)
	key, _ := seal.DeriveKey(secret)

	doc, _ := model.DefaultDocument().WithQueued("42")
	blob, err := seal.Encrypt(doc, key)
	assert.NoErr(t, err)

	remote.blobs[secret] = blob

	assert.NoErr(t, store.Login(ctx, secret))
	assert.Equal(t, store.Data().Queue, []string{"42"})
}

func TestLoginInvalidSecret(t *testing.T) {
	store, _, secrets := prepare(t)

	err := store.Login(context.Background(), "not-base58-0OIl")
	assert.ErrSpec(t, err, seal.ErrInvalidSecretFormat)
	assert.Equal(t, store.State(), StateLoggedOut)
	assert.Equal(t, secrets.get(), "")
	assert.True(t, IsAuthFailure(err))
}

func TestLoginDecryptFailure(t *testing.T) {
	ctx := context.Background()
	store, remote, secrets := prepare(t)
	secret := newSecret(t)

	otherKey, _ := seal.DeriveKey(newSecret(t))
	blob, _ := seal.Encrypt(model.DefaultDocument(), otherKey)
	remote.blobs[secret] = blob

	err := store.Login(ctx, secret)
	assert.ErrSpec(t, err, ErrAuthenticationFailed)
	assert.ErrSpec(t, err, seal.ErrDecryptionFailed)
	assert.Equal(t, store.State(), StateLoggedOut)
	assert.Equal(t, secrets.get(), "")
	assert.Equal(t, store.Data(), model.DefaultDocument())
}

func TestLoginNetworkFailure(t *testing.T) {
	store, remote, _ := prepare(t)
	remote.getErr = relayapi.ErrNetwork.WithError(errors.New("connection refused"))

	err := store.Login(context.Background(), newSecret(t))
	assert.ErrSpec(t, err, relayapi.ErrNetwork)
	assert.Equal(t, store.State(), StateLoggedOut)
	assert.False(t, IsAuthFailure(err))
}

func TestFailedLoginDropsSession(t *testing.T) {
	ctx := context.Background()
	store, remote, secrets := prepare(t)
	first := newSecret(t)

	assert.NoErr(t, store.Login(ctx, first))
	assert.NoErr(t, store.AddToQueue(ctx, "1"))

	second := newSecret(t)
	otherKey, _ := seal.DeriveKey(newSecret(t))
	blob, _ := seal.Encrypt(model.DefaultDocument(), otherKey)
	remote.blobs[second] = blob

	// malformed secret keep current session
	assert.ErrSpec(t, store.Login(ctx, "not-base58-0OIl"), seal.ErrInvalidSecretFormat)
	assert.Equal(t, store.State(), StateAuthenticated)
	assert.Equal(t, store.Data().Queue, []string{"1"})

	err := store.Login(ctx, second)
	assert.ErrSpec(t, err, ErrAuthenticationFailed)
	assert.Equal(t, store.State(), StateLoggedOut)
	assert.False(t, store.Authenticated())
	assert.Equal(t, store.Data(), model.DefaultDocument())
	assert.Equal(t, secrets.get(), first)

	pushes := remote.pushCount()
	assert.NoErr(t, store.AddToQueue(ctx, "2"))
	assert.Equal(t, remote.pushCount(), pushes)
}

func TestMutationsWhenLoggedOut(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := prepare(t)

	assert.NoErr(t, store.AddToQueue(ctx, "1"))
	assert.NoErr(t, store.AddSubscription(ctx, model.Subscription{PodcastID: "10"}))
	assert.NoErr(t, store.SetCurrentlyPlaying(ctx, "1", "10"))

	assert.Equal(t, remote.pushCount(), 0)
	assert.Equal(t, store.Data(), model.DefaultDocument())
}

func TestAddSubscriptionIdempotent(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := prepare(t)
	secret := newSecret(t)
	assert.NoErr(t, store.Login(ctx, secret))

	sub := model.Subscription{PodcastID: "10", Title: "Show"}
	assert.NoErr(t, store.AddSubscription(ctx, sub))
	assert.NoErr(t, store.AddSubscription(ctx, sub))

	assert.Len(t, store.Data().Subscriptions, 1)
	assert.Equal(t, remote.pushCount(), 1)
	assert.Len(t, remote.document(t, secret).Subscriptions, 1)

	assert.NoErr(t, store.RemoveSubscription(ctx, "99"))
	assert.Equal(t, remote.pushCount(), 1)

	assert.NoErr(t, store.RemoveSubscription(ctx, "10"))
	assert.Len(t, store.Data().Subscriptions, 0)
	assert.Equal(t, remote.pushCount(), 2)

	assert.Err(t, store.AddSubscription(ctx, model.Subscription{PodcastID: "abc"}))
}

func TestQueueOperations(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := prepare(t)
	secret := newSecret(t)
	assert.NoErr(t, store.Login(ctx, secret))

	assert.NoErr(t, store.AddToQueue(ctx, "1"))
	assert.NoErr(t, store.AddToQueue(ctx, "1"))
	assert.NoErr(t, store.AddToQueue(ctx, "2"))
	assert.Equal(t, store.Data().Queue, []string{"1", "2"})

	assert.NoErr(t, store.ReorderQueue(ctx, []string{"2", "1"}))
	assert.Equal(t, store.Data().Queue, []string{"2", "1"})

	assert.NoErr(t, store.RemoveFromQueue(ctx, "2"))
	assert.Equal(t, store.Data().Queue, []string{"1"})
	assert.Equal(t, remote.document(t, secret).Queue, []string{"1"})
	assert.Equal(t, remote.pushCount(), 4)

	assert.Err(t, store.AddToQueue(ctx, ""))
}

func TestProgressAndCurrentlyPlaying(t *testing.T) {
	ctx := context.Background()
	store, remote, secret := prepare(t)
	assert.NoErr(t, store.Login(ctx, newSecret(t)))

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.NoErr(t, store.UpdateEpisodeProgress(ctx, "5", model.NewEpisodeProgress(50, 100, now)))
	assert.NoErr(t, store.SetCurrentlyPlaying(ctx, "5", "7"))
	assert.NoErr(t, store.SetCurrentlyPlaying(ctx, "5", "7"))

	doc := remote.document(t, secret.get())
	progress, ok := doc.Progress("5")
	assert.True(t, ok)
	assert.Equal(t, progress.Status, model.StatusInProgress)
	assert.Equal(t, doc.CurrentlyPlaying.EpisodeID(), "5")
	assert.Equal(t, doc.CurrentlyPlaying.PodcastID(), "7")
	assert.Equal(t, remote.pushCount(), 2)

	assert.NoErr(t, store.SetCurrentlyPlaying(ctx, "5", ""))
	assert.False(t, store.Data().CurrentlyPlaying.IsSet())
}

func TestUpdatePreferences(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := prepare(t)
	assert.NoErr(t, store.Login(ctx, newSecret(t)))

	speed := 1.5
	assert.NoErr(t, store.UpdatePreferences(ctx, model.PreferencesPatch{DefaultPlaybackSpeed: &speed}))
	assert.NoErr(t, store.UpdatePreferences(ctx, model.PreferencesPatch{DefaultPlaybackSpeed: &speed}))
	assert.NoErr(t, store.UpdatePreferences(ctx, model.PreferencesPatch{}))

	prefs := store.Data().Preferences
	assert.Equal(t, prefs.DefaultPlaybackSpeed, 1.5)
	assert.Equal(t, prefs.DefaultSkipForward, 30)
	assert.Equal(t, remote.pushCount(), 1)

	bad := 10.0
	assert.ErrSpec(t, store.UpdatePreferences(ctx, model.PreferencesPatch{DefaultPlaybackSpeed: &bad}),
		"validation error")
}

func TestPushFailureRecorded(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := prepare(t)
	assert.NoErr(t, store.Login(ctx, newSecret(t)))

	events, cancel := store.Subscribe(10)
	defer cancel()

	remote.putErr = relayapi.ErrNetwork.WithError(errors.New("boom"))

	err := store.AddToQueue(ctx, "1")
	assert.ErrSpec(t, err, relayapi.ErrNetwork)
	assert.ErrSpec(t, store.LastSyncError(), relayapi.ErrNetwork)
	assert.False(t, store.Syncing())
	// local change is kept
	assert.Equal(t, store.Data().Queue, []string{"1"})

	failed := false

	for len(events) > 0 {
		if ev := <-events; ev.Kind == EventSyncFailed {
			failed = true
		}
	}

	assert.True(t, failed)

	remote.putErr = nil

	assert.NoErr(t, store.Sync(ctx))
	assert.NoErr(t, store.LastSyncError())
	assert.Equal(t, remote.pushCount(), 1)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store, _, secrets := prepare(t)
	assert.NoErr(t, store.Login(ctx, newSecret(t)))
	assert.NoErr(t, store.AddToQueue(ctx, "1"))

	assert.NoErr(t, store.Logout(ctx))
	assert.Equal(t, store.State(), StateLoggedOut)
	assert.Equal(t, secrets.get(), "")
	assert.Equal(t, store.Data(), model.DefaultDocument())
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	store, _, secrets := prepare(t)
	secret := newSecret(t)
	secrets.secret = secret

	assert.False(t, store.Initialized())
	assert.NoErr(t, store.Resume(ctx))
	assert.True(t, store.Initialized())
	assert.True(t, store.Authenticated())
	assert.Equal(t, secrets.get(), secret)

	// second call do nothing
	assert.NoErr(t, store.Logout(ctx))
	secrets.secret = secret
	assert.NoErr(t, store.Resume(ctx))
	assert.False(t, store.Authenticated())
}

func TestResumeUndecryptableRemovesSecret(t *testing.T) {
	ctx := context.Background()
	store, remote, secrets := prepare(t)
	secret := newSecret(t)
	secrets.secret = secret
	remote.blobs[secret] = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

	err := store.Resume(ctx)
	assert.ErrSpec(t, err, ErrAuthenticationFailed)
	assert.True(t, store.Initialized())
	assert.False(t, store.Authenticated())
	assert.Equal(t, secrets.get(), "")
}

func TestResumeNoSecret(t *testing.T) {
	store, _, _ := prepare(t)

	assert.NoErr(t, store.Resume(context.Background()))
	assert.True(t, store.Initialized())
	assert.Equal(t, store.State(), StateLoggedOut)
}

func TestConcurrentMutationsConverge(t *testing.T) {
	ctx := context.Background()
	store, remote, _ := prepare(t)
	secret := newSecret(t)
	assert.NoErr(t, store.Login(ctx, secret))

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoErr(t, store.AddToQueue(ctx, fmt.Sprintf("%d", i)))
		}()
	}

	wg.Wait()

	assert.False(t, store.Syncing())
	assert.Len(t, store.Data().Queue, 20)
	assert.EqualSorted(t, remote.document(t, secret).Queue, store.Data().Queue)
	assert.True(t, remote.pushCount() <= 20)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	store, _, _ := prepare(t)

	events, cancel := store.Subscribe(20)
	defer cancel()

	assert.NoErr(t, store.Login(ctx, newSecret(t)))

	ev := <-events
	assert.Equal(t, ev.Kind, EventAuthChanged)
	assert.Equal(t, ev.State, StateLoggingIn)

	ev = <-events
	assert.Equal(t, ev.Kind, EventAuthChanged)
	assert.Equal(t, ev.State, StateAuthenticated)

	ev = <-events
	assert.Equal(t, ev.Kind, EventDocumentChanged)
}
