package relayapi

//
// data.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"net/http"

	"gitlab.com/kabes/go-relay/internal/aerr"
)

var errPutRejected = errors.New("server rejected data")

type blobPayload struct {
	EncryptedBlob *string `json:"encrypted_blob"`
}

// GetData load encrypted blob for account. Return nil when account has no data yet.
func (c *Client) GetData(ctx context.Context, key string) (*string, error) {
	var res blobPayload

	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     "/api/data",
		key:      key,
		response: &res,
	})
	if err != nil {
		return nil, err
	}

	if res.EncryptedBlob != nil && *res.EncryptedBlob == "" {
		return nil, nil //nolint:nilnil
	}

	return res.EncryptedBlob, nil
}

// PutData replace encrypted blob for account.
func (c *Client) PutData(ctx context.Context, key, blob string) error {
	var res struct {
		Success bool `json:"success"`
	}

	err := c.do(ctx, &request{
		method:   http.MethodPut,
		path:     "/api/data",
		key:      key,
		body:     blobPayload{EncryptedBlob: &blob},
		response: &res,
	})
	if err != nil {
		return err
	}

	if !res.Success {
		return ErrNetwork.WithError(errPutRejected).WithUserMsg("server did not accept data")
	}

	return nil
}

// IsUnauthorized check if err is caused by rejected account key.
func IsUnauthorized(err error) bool {
	return aerr.HasTag(err, aerr.NetworkError) && StatusCode(err) == http.StatusUnauthorized
}
