package relayapi

//
// package.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-relay/internal/config"
)

var Package = do.Package(
	do.Lazy(NewClientI),
)

func NewClientI(i do.Injector) (*Client, error) {
	conf := do.MustInvoke[*config.ClientConf](i)

	return New(conf.ServerURL, WithTimeout(conf.Timeout), WithUserAgent(config.UserAgent()))
}
