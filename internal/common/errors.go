package common

//
// Common application errors
//
// errors.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"gitlab.com/kabes/go-relay/internal/aerr"
)

var ErrNotAuthenticated = aerr.New("not authenticated").WithTag(aerr.AuthError).
	WithUserMsg("not logged in; run `login` first")

// Validation errors.
var (
	ErrInvalidPodcast = aerr.New("invalid podcast").WithTag(aerr.ValidationError)
	ErrInvalidEpisode = aerr.New("invalid episode").WithTag(aerr.ValidationError)
	ErrEmptyQuery     = aerr.New("query can't be empty").WithTag(aerr.ValidationError)
	ErrUnknownEpisode = aerr.New("unknown episode").WithTag(aerr.ValidationError)
)
