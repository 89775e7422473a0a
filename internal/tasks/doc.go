// package tasks implements the import pipeline from parsed Letterboxd records to Simkl.
//
// The core abstraction is [SyncEngine], which sequences authentication, show expansion,
// batch submission, the settle delay, reconciliation and the optional watchlist import.
// Operations emit progress updates via channels for non-blocking status reporting to the CLI.
//
// Stage failures other than authentication are recorded in [RunResult] instead of aborting the run:
// a rejected submission still reconciles, and a failed history fetch still offers the watchlist.
// [Index] and [Diff] are pure and can be used on their own.
package tasks
