package common

//
// appctx.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
)

//nolint:gochecknoglobals
var ctxRequestIDKey = any("ctxRequestIDKey")

// ContextRequestID return request id from context.
func ContextRequestID(ctx context.Context) string {
	value, ok := ctx.Value(ctxRequestIDKey).(string)
	if ok {
		return value
	}

	return ""
}

// ContextWithRequestID create new context with request id.
func ContextWithRequestID(ctx context.Context, reqid string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, reqid)
}

// ------------------------------------------------------

//nolint:gochecknoglobals
var ctxOriginKey = any("ctxOriginKey")

// ContextOrigin return name of component that started operation (cli, timer, control api...).
func ContextOrigin(ctx context.Context) string {
	value, ok := ctx.Value(ctxOriginKey).(string)
	if ok {
		return value
	}

	return ""
}

// ContextWithOrigin create context with operation origin.
func ContextWithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, ctxOriginKey, origin)
}
