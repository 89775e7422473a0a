// Package models defines the domain types for importing a Letterboxd export into Simkl.
//
// The package contains four categories of types:
//
// 1. Intents: what the source export says was watched
//   - [MediaIntent] : one movie or show keyed by its TMDB ID
//   - [EpisodeManifest] : synthetic season/episode list derived from TMDB metadata
//
// 2. Wire payloads and snapshots exchanged with Simkl
//   - [SyncPayload] : the single batch body sent to /sync/history
//   - [ListPayload] : the watchlist body sent to /sync/add-to-list
//   - [RemoteHistorySnapshot] : the /sync/all-items response
//   - [RemoteHistoryIndex] : identifier sets extracted from a snapshot
//   - [DiscrepancyReport] : intents missing from the remote history
//
// 3. Remote responses decoded from the services
//   - [DeviceCode] : the pairing code of a device-code login
//   - [SyncResponse] : counts and not-found items returned by a submission
//   - [ShowDetails] : the TMDB season list used for expansion
//   - [Review] : one Letterboxd member review
//
// 4. Persistent Entities: the run audit log
//   - [SyncRun] : one import or reconcile invocation with its counts and status
//   - [RunDiscrepancy] : a missing item recorded against a run
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps, and validation.
package models
