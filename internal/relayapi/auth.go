package relayapi

//
// auth.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"net/http"
	"time"
)

type keyRequest struct {
	Key string `json:"key"`
}

// VerifyResult is response for key verification.
type VerifyResult struct {
	Valid         bool       `json:"valid"`
	EncryptedBlob *string    `json:"encrypted_blob"`
	CreatedAt     *time.Time `json:"created_at"`
}

// CreateAccount register new account on server and return its secret.
func (c *Client) CreateAccount(ctx context.Context) (string, error) {
	var res struct {
		Key string `json:"key"`
	}

	err := c.do(ctx, &request{
		method:   http.MethodPost,
		path:     "/api/auth/create",
		response: &res,
	})
	if err != nil {
		return "", err
	}

	return res.Key, nil
}

// VerifyKey check if key identify existing account.
func (c *Client) VerifyKey(ctx context.Context, key string) (VerifyResult, error) {
	var res VerifyResult

	err := c.do(ctx, &request{
		method:   http.MethodPost,
		path:     "/api/auth/verify",
		body:     keyRequest{Key: key},
		response: &res,
	})

	return res, err
}

// DeleteAccount remove account and all stored data.
func (c *Client) DeleteAccount(ctx context.Context, key string) error {
	return c.do(ctx, &request{
		method: http.MethodDelete,
		path:   "/api/auth/account",
		body:   keyRequest{Key: key},
	})
}
