package relayapi

//
// client_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/assert"
	"gitlab.com/kabes/go-relay/internal/common"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/", WithUserAgent("test-agent"))
	assert.NoErr(t, err)

	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New("  ")
	assert.ErrSpec(t, err, aerr.ErrInvalidConf)
}

func TestTimeoutOption(t *testing.T) {
	client, err := New("https://relay.example.com", WithTimeout(5*time.Second))
	assert.NoErr(t, err)
	assert.Equal(t, client.httpClient.Timeout, 5*time.Second)

	shared := &http.Client{Timeout: time.Second}

	for _, opts := range [][]Option{
		{WithHTTPClient(shared), WithTimeout(5 * time.Second)},
		{WithTimeout(5 * time.Second), WithHTTPClient(shared)},
	} {
		client, err := New("https://relay.example.com", opts...)
		assert.NoErr(t, err)
		assert.Equal(t, client.httpClient.Timeout, 5*time.Second)
		assert.Equal(t, shared.Timeout, time.Second)
	}

	client, err = New("https://relay.example.com", WithHTTPClient(shared))
	assert.NoErr(t, err)
	assert.True(t, client.httpClient == shared)
}

func TestCreateAccount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/create", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Header.Get("User-Agent"), "test-agent")
		assert.True(t, r.Header.Get(HeaderRequestID) != "")
		assert.Equal(t, r.Header.Get("Authorization"), "")
		writeJSON(w, http.StatusOK, `{"key":"secret123"}`)
	})

	client := newTestClient(t, mux)
	key, err := client.CreateAccount(context.Background())
	assert.NoErr(t, err)
	assert.Equal(t, key, "secret123")
}

func TestVerifyKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		var req keyRequest
		assert.NoErr(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Key == "good" {
			writeJSON(w, http.StatusOK,
				`{"valid":true,"encrypted_blob":"abc","created_at":"2026-01-02T03:04:05Z"}`)

			return
		}

		writeJSON(w, http.StatusOK, `{"valid":false,"encrypted_blob":null,"created_at":null}`)
	})

	client := newTestClient(t, mux)

	res, err := client.VerifyKey(context.Background(), "good")
	assert.NoErr(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, *res.EncryptedBlob, "abc")
	assert.Equal(t, res.CreatedAt.Year(), 2026)

	res, err = client.VerifyKey(context.Background(), "bad")
	assert.NoErr(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.EncryptedBlob == nil)
}

func TestGetDataNullBlob(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Header.Get("Authorization"), "Bearer key1")
		writeJSON(w, http.StatusOK, `{"encrypted_blob":null}`)
	})

	client := newTestClient(t, mux)
	blob, err := client.GetData(context.Background(), "key1")
	assert.NoErr(t, err)
	assert.True(t, blob == nil)
}

func TestPutGetData(t *testing.T) {
	var stored string

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/data", func(w http.ResponseWriter, r *http.Request) {
		var req blobPayload
		assert.NoErr(t, json.NewDecoder(r.Body).Decode(&req))

		stored = *req.EncryptedBlob

		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	mux.HandleFunc("GET /api/data", func(w http.ResponseWriter, _ *http.Request) {
		data, _ := json.Marshal(blobPayload{EncryptedBlob: &stored})
		writeJSON(w, http.StatusOK, string(data))
	})

	client := newTestClient(t, mux)
	assert.NoErr(t, client.PutData(context.Background(), "key1", "blob-data"))

	blob, err := client.GetData(context.Background(), "key1")
	assert.NoErr(t, err)
	assert.Equal(t, *blob, "blob-data")
}

func TestPutDataRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/data", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false}`)
	})

	client := newTestClient(t, mux)
	err := client.PutData(context.Background(), "key1", "blob")
	assert.ErrSpec(t, err, ErrNetwork)
	assert.True(t, errors.Is(err, errPutRejected))
}

func TestErrorDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid key"}`)
	})

	client := newTestClient(t, mux)
	_, err := client.GetData(context.Background(), "key1")
	assert.ErrSpec(t, err, ErrNetwork)
	assert.True(t, aerr.HasTag(err, aerr.NetworkError))
	assert.Equal(t, aerr.GetUserMessage(err), "Invalid key")
	assert.Equal(t, StatusCode(err), http.StatusUnauthorized)
	assert.True(t, IsUnauthorized(err))
}

func TestErrorFallbackStatusText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	client := newTestClient(t, mux)
	_, err := client.GetData(context.Background(), "key1")
	assert.ErrSpec(t, err, ErrNetwork)
	assert.Equal(t, aerr.GetUserMessage(err), http.StatusText(http.StatusBadGateway))
	assert.Equal(t, StatusCode(err), http.StatusBadGateway)
	assert.False(t, IsUnauthorized(err))
}

func TestErrorValidationDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/verify", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`)
	})

	client := newTestClient(t, mux)
	_, err := client.VerifyKey(context.Background(), "")
	assert.ErrSpec(t, err, ErrNetwork)
	assert.Equal(t, aerr.GetUserMessage(err), `[{"msg":"field required"}]`)
}

func TestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	url := srv.URL
	srv.Close()

	client, err := New(url)
	assert.NoErr(t, err)

	_, err = client.CreateAccount(context.Background())
	assert.ErrSpec(t, err, ErrNetwork)
	assert.Equal(t, StatusCode(err), 0)
}

func TestMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/podcasts/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Query().Get("q"), "go time")
		writeJSON(w, http.StatusOK, `{"feeds":[{"id":1,"title":"Go Time","url":"https://example.com/rss"}],"count":1}`)
	})
	mux.HandleFunc("GET /api/podcasts/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.PathValue("id"), "1")
		writeJSON(w, http.StatusOK, `{"feed":{"id":1,"title":"Go Time","episodeCount":2}}`)
	})
	mux.HandleFunc("GET /api/podcasts/{id}/episodes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Query().Get("max"), "100")
		writeJSON(w, http.StatusOK, `{"items":[{"id":10,"title":"e1","duration":120,"feedId":1}],"count":1}`)
	})
	mux.HandleFunc("GET /api/episodes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK,
			`{"episode":{"id":10,"title":"e1","duration":120.5,"enclosureUrl":"https://cdn.example.com/a.mp3","feedId":1}}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	search, err := client.SearchPodcasts(ctx, " go time ")
	assert.NoErr(t, err)
	assert.Equal(t, search.Count, 1)
	assert.Equal(t, search.Feeds[0].Title, "Go Time")

	podcast, err := client.GetPodcast(ctx, 1)
	assert.NoErr(t, err)
	assert.Equal(t, podcast.EpisodeCount, 2)

	episodes, err := client.GetEpisodes(ctx, 1, 500)
	assert.NoErr(t, err)
	assert.Len(t, episodes.Items, 1)

	episode, err := client.GetEpisode(ctx, 10)
	assert.NoErr(t, err)
	assert.Equal(t, episode.Duration, 120.5)
	assert.Equal(t, episode.EnclosureURL, "https://cdn.example.com/a.mp3")

	_, err = client.SearchPodcasts(ctx, "  ")
	assert.ErrSpec(t, err, common.ErrEmptyQuery)
}

func TestProxyURLs(t *testing.T) {
	client, err := New("https://relay.example.com/")
	assert.NoErr(t, err)

	assert.Equal(t, client.ProxyAudioURL("https://cdn.example.com/a.mp3?x=1"),
		"https://relay.example.com/api/proxy/audio?url=https%3A%2F%2Fcdn.example.com%2Fa.mp3%3Fx%3D1")
	assert.Equal(t, client.ProxyImageURL("https://img.example.com/a.png"),
		"https://relay.example.com/api/proxy/image?url=https%3A%2F%2Fimg.example.com%2Fa.png")
	assert.Equal(t, client.ProxyImageURL(""), "")
}
