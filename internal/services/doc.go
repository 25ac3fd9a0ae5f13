// Package services implements the HTTP clients for the three remote endpoints the client consumes.
//
// # Transport
//
// [APIService] performs every request: JSON in, JSON out, the session token in the [TokenHeader]
// header, optional pacing with a [rate.Limiter]. It never interprets status codes.
//
// # Endpoint Clients
//
//   - [IdentityService] : login, registration and Google sign-in against the identity endpoint
//   - [MediaService] : base64 media upload
//   - [CatalogService] : listing, entry registration and view counting
//   - [GoogleService] : the OAuth2 authorization-code flow producing a [GoogleProfile]
//
// # Error Handling
//
// Every failure is a *[shared.Error] whose Message is safe to show the user:
//   - [shared.ErrValidation] : a local precondition failed; no request was sent
//   - [shared.ErrAuthFailed] : the identity endpoint rejected the request, message from its {"error"} field
//   - [shared.ErrUploadFailed] : the upload step failed
//   - [shared.ErrMetadataFailed] : catalog registration failed after a successful upload
//   - [shared.ErrTransport] : the server was unreachable or replied with something unreadable
//
// Upload and registration failures keep their step kind even when the cause is a transport failure, so
// callers can tell which step of a publish broke. A 401 or 403 on an authenticated call also matches
// [shared.ErrTokenRejected].
package services
