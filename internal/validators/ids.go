package validators

//
// ids.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"regexp"
	"strconv"
)

// Podcast and episode ids are numeric ids from the podcast index.
var reNumericID = regexp.MustCompile(`^[0-9]{1,19}$`)

func IsValidPodcastID(id string) bool {
	return reNumericID.MatchString(id)
}

func IsValidEpisodeID(id string) bool {
	return reNumericID.MatchString(id)
}

// ParseID convert textual id to numeric form used by metadata api.
func ParseID(id string) (int64, bool) {
	if !reNumericID.MatchString(id) {
		return 0, false
	}

	val, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}

	return val, true
}

var reSecret = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)

// IsValidSecretAlphabet check if secret contains only base58 characters.
func IsValidSecretAlphabet(secret string) bool {
	return reSecret.MatchString(secret)
}
