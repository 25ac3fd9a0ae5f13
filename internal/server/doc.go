// Package server runs the short-lived local HTTP listener used by Google sign-in.
//
// # Router
//
// [BasicRouter] implements [Router] on top of [http.ServeMux]. Several methods may share a path; a request
// with any other method gets 405 with an Allow header. [Middleware] wraps handlers in reverse order (last
// added executes first).
//
// # OAuth Callback
//
// [OAuthHandler] receives the authorization-code redirect. It checks the state parameter, exchanges the code
// through an [Exchanger] and hands the result to [OAuthHandler.Wait]. Only the first callback is processed.
//
// # Lifecycle
//
// The CLI starts a [CallbackServer] on the configured host and port, opens the consent page in the browser,
// waits for the callback and shuts the listener down again. Nothing listens once sign-in is over.
package server
