package testutil

import (
	"net/http"

	id "registrar/pkg/domain"
	"registrar/pkg/requestcontext"
)

// WithCaller attaches an authenticated caller to the request context, the
// same way the auth middleware does. Invalid addresses are ignored.
func WithCaller(req *http.Request, caller string) *http.Request {
	identity, err := id.ParseIdentity(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), identity))
}
