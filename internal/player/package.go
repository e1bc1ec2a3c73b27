package player

//
// package.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-relay/internal/config"
	"gitlab.com/kabes/go-relay/internal/relayapi"
	"gitlab.com/kabes/go-relay/internal/syncstore"
)

var Package = do.Package(
	do.Lazy(NewLogControlsI),
	do.Lazy(NewEngineI),
)

func NewLogControlsI(_ do.Injector) (*LogControls, error) {
	return NewLogControls(log.Logger), nil
}

func NewEngineI(i do.Injector) (*Engine, error) {
	conf := do.MustInvoke[*config.PlayerConf](i)
	ctx := log.Logger.WithContext(context.Background())

	return New(ctx,
		do.MustInvoke[*syncstore.Store](i),
		do.MustInvoke[*relayapi.Client](i),
		ClockSessionFactory(),
		WithRate(conf.Rate),
		WithSnapshotPeriod(conf.SnapshotPeriod),
		WithControls(do.MustInvoke[*LogControls](i)),
	), nil
}
