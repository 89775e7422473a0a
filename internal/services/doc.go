// Package services implements the HTTP clients an import talks to.
//
// # Interfaces
//
// [HistoryService] covers the tracker receiving the import, [MetadataService] the show lookup used
// to expand shows into episodes, and [ReviewService] the optional review scraper. The tasks package
// depends only on these interfaces.
//
// # Simkl
//
// [SimklService] implements the PIN (device-code) login: GET /oauth/pin issues a user code and
// verification URL, and GET /oauth/pin/{code} returns an access token once the user has entered the code.
// Every request carries the simkl-api-key header; authenticated calls add a bearer token built from an [oauth2.Token].
// Submissions succeed only on 201 Created, history reads only on 200 OK.
//
// # TMDB
//
// [TMDBService] reads /tv/{id} for the seasons list. Requests are paced with a [rate.Limiter].
//
// # Letterboxd
//
// [LetterboxdService] follows letterboxd.com/tmdb/{id} to the film page and scrapes
// reviews/by/activity pages with goquery, ten reviews per page.
//
// # Error Handling
//
// Non-success statuses are returned as [*StatusError], which carries the status and body and unwraps to a sentinel:
//   - [shared.ErrAuthFailed] : PIN request or resolution failed
//   - [shared.ErrSubmission] : history or watchlist POST did not return 201
//   - [shared.ErrHistoryFetch] : all-items GET did not return 200
//   - [shared.ErrMetadataFetch] : TMDB lookup failed
//   - [shared.ErrReviewsFetch] : Letterboxd page could not be read
//
// Transport failures wrap [shared.ErrServiceUnavailable] inside the same sentinels.
package services
