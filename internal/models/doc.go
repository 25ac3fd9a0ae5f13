// Package models defines the domain entities of the teltube client.
//
// The package contains three groups of types:
//
// 1. Session state, owned by the session controller and persisted by the credential store
//   - [Identity] : the signed-in user's display profile
//   - [Session] : an identity paired with its bearer token
//
// 2. Upload input, transient and in memory only
//   - [Draft] : title, description, media and optional thumbnail awaiting publication
//   - [MediaFile] : a named binary blob read from disk
//
// 3. Catalog records, owned by the remote service
//   - [CatalogEntry] : a published video as listed by the catalog endpoint
//   - [CatalogEntryRef] : what the catalog returns after registering a new entry
//   - [UploadResult] : the upload endpoint's response, the intermediate state of a publish
package models
