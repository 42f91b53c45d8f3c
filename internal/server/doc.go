// Package server provides the loopback HTTP server used during Spotify authorization.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in standard Go fashion; the stack is applied so
// that middleware added first sees the request first.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), surfaces
// provider error and error_description parameters, exchanges the
// authorization code through a [TokenExchanger], and sends the result over a
// buffered channel.
//
// It processes exactly one callback, so a replayed or refreshed redirect
// cannot restart the exchange.
//
// # Usage
//
// The auth command starts a temporary server on the configured loopback
// address, opens the authorization URL in a browser, and waits on
// [OAuthHandler.Result], a server error, or a timeout before shutting the
// server down with a context.
package server
