package validators

//
// urls.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"net/url"
	"strings"
)

// IsValidURL check if u is absolute http/https url.
func IsValidURL(u string) bool {
	purl, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return false
	}

	return (purl.Scheme == "http" || purl.Scheme == "https") && purl.Host != ""
}

// SanitizeURL normalize given url.
// Based on mygpo; but do not normalize query & path; do not expand shortcuts, remove user/pass.
// Accept only http/s.
func SanitizeURL(u string) string {
	su := strings.TrimSpace(u)

	// like mygpo
	if len(su) < 8 { //nolint:mnd
		return ""
	}

	purl, err := url.Parse(su)
	if err != nil {
		return ""
	}

	// url without scheme are http; feed://, itpc:// and itms:// are really http://
	if purl.Scheme == "" || purl.Scheme == "feed" || purl.Scheme == "itpc" || purl.Scheme == "itms" {
		purl.Scheme = "http"
	}

	// scheme and host are case insensitive
	purl.Scheme = strings.ToLower(purl.Scheme)
	purl.Host = strings.ToLower(purl.Host)

	// Normalize empty paths to "/"
	if purl.Path == "" {
		purl.Path = "/"
	}

	// accept only http & https
	if purl.Scheme != "http" && purl.Scheme != "https" {
		return ""
	}

	return purl.String()
}
