// Package relayapi is client for relay server: account management, encrypted
// document storage, podcast metadata and privacy proxy urls.
package relayapi

//
// client.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/common"
)

const (
	DefaultTimeout = 30 * time.Second
	// HeaderRequestID is header carrying request id.
	HeaderRequestID = "X-Request-Id"

	maxErrorBody = 64 * 1024
)

// ErrNetwork mark transport failures and non-2xx responses.
var ErrNetwork = aerr.NewSimple("network or server error").WithTag(aerr.NetworkError)

// Error is non-2xx response from server.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Detail)
}

// StatusCode return http status of response error wrapped in err or 0.
func StatusCode(err error) int {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Status
	}

	return 0
}

// Client provides access to relay server api.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout set timeout for requests. Client given by WithHTTPClient is
// copied before the timeout is applied.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a relay api client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, aerr.ErrInvalidConf.WithUserMsg("relay server url required")
	}

	if _, err := url.Parse(baseURL); err != nil {
		return nil, aerr.ApplyFor(aerr.ErrInvalidConf, err, "invalid relay server url")
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: instrumentedTransport(http.DefaultTransport),
		},
		userAgent: "go-relay",
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.timeout > 0 && client.httpClient.Timeout != client.timeout {
		httpClient := *client.httpClient
		httpClient.Timeout = client.timeout
		client.httpClient = &httpClient
	}

	return client, nil
}

// BaseURL return server address used by client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

//------------------------------------------------------------------------------

type request struct {
	method   string
	path     string
	query    url.Values
	key      string
	body     any
	response any
}

func (c *Client) do(ctx context.Context, req *request) error {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader

	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return aerr.Wrapf(err, "encode request body failed").WithTag(aerr.InternalError)
		}

		body = bytes.NewReader(data)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return aerr.ApplyFor(ErrNetwork, err).WithMeta("path", req.path)
	}

	reqid := xid.New().String()

	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", c.userAgent)
	hreq.Header.Set(HeaderRequestID, reqid)

	if req.key != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.key)
	}

	logger := log.Ctx(ctx).With().Str(common.LogKeyReqID, reqid).Logger()
	common.TraceLazyPrintf(ctx, "relayapi: %s %s req_id=%s", req.method, req.path, reqid)

	start := time.Now()
	resp, err := c.httpClient.Do(hreq)
	latency := time.Since(start)

	if err != nil {
		logger.Debug().Err(err).Msgf("relayapi: %s %s failed; latency=%s", req.method, req.path, latency)
		common.TraceErrorLazyPrintf(ctx, "relayapi: %s %s error: %s", req.method, req.path, err)

		return aerr.ApplyFor(ErrNetwork, err, "can't connect to server").WithMeta("path", req.path, "req_id", reqid)
	}

	defer resp.Body.Close()

	logger.Debug().Msgf("relayapi: %s %s -> %d; latency=%s", req.method, req.path, resp.StatusCode, latency)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		rerr := decodeError(resp)
		common.TraceErrorLazyPrintf(ctx, "relayapi: %s %s status=%d", req.method, req.path, resp.StatusCode)

		return aerr.ApplyFor(ErrNetwork, rerr, rerr.Detail).WithMeta("path", req.path, "req_id", reqid)
	}

	if req.response == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(req.response); err != nil {
		return aerr.ApplyFor(ErrNetwork, err, "invalid response from server").
			WithMeta("path", req.path, "req_id", reqid)
	}

	return nil
}

// decodeError read `{detail}` from error response; fallback to status text.
func decodeError(resp *http.Response) *Error {
	rerr := &Error{Status: resp.StatusCode}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && json.Unmarshal(data, &payload) == nil && len(payload.Detail) > 0 {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil {
			rerr.Detail = detail
		} else {
			// validation errors carry list of objects in detail
			rerr.Detail = string(payload.Detail)
		}
	}

	if rerr.Detail == "" || rerr.Detail == "null" {
		rerr.Detail = http.StatusText(resp.StatusCode)
	}

	if rerr.Detail == "" {
		rerr.Detail = "request failed (" + strconv.Itoa(resp.StatusCode) + ")"
	}

	return rerr
}
