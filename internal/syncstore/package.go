package syncstore

//
// package.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-relay/internal/localstore"
	"gitlab.com/kabes/go-relay/internal/relayapi"
)

var Package = do.Package(
	do.Lazy(NewStoreI),
)

func NewStoreI(i do.Injector) (*Store, error) {
	return New(
		do.MustInvoke[*relayapi.Client](i),
		do.MustInvoke[*localstore.SecretStore](i),
	), nil
}
