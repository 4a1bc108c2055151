package socket

import (
	"context"
	"errors"
)

// Middleware wraps a handler with one cross-cutting concern. Concerns
// compose as an explicit ordered chain rather than implicit decoration.
type Middleware func(Handler) Handler

// Chain wraps a handler so the first middleware listed runs first.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequireAdmin rejects the command before the handler runs unless the
// connection's user holds an admin or owner role.
func RequireAdmin(next Handler) Handler {
	return func(ctx context.Context, conn *Connection, msg *Message) (any, error) {
		if !conn.Role().IsAdmin() {
			return nil, NewError(ErrCodeUnauthorized, "command %s requires admin access", msg.Type)
		}
		return next(ctx, conn, msg)
	}
}

// ErrorTranslator maps a domain error to a coded wire error, or returns
// nil when it does not recognise the error.
type ErrorTranslator func(error) *Error

// TranslateErrors converts handler errors to coded wire errors. Coded
// errors pass through untouched; recognised domain errors are mapped by
// the translator; everything else falls through to the dispatch boundary
// as unknown_error.
func TranslateErrors(translate ErrorTranslator) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, conn *Connection, msg *Message) (any, error) {
			result, err := next(ctx, conn, msg)
			if err == nil {
				return result, nil
			}
			var coded *Error
			if errors.As(err, &coded) {
				return nil, coded
			}
			if translate != nil {
				if mapped := translate(err); mapped != nil {
					return nil, mapped
				}
			}
			return nil, err
		}
	}
}
