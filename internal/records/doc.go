// Package records reads Letterboxd CSV exports into typed media intents.
//
// An export has a header row naming at least the [ColumnTMDBID] and [ColumnType] columns;
// [ColumnLetterboxdURL] and [ColumnRating] are optional. Column order is free and extra columns are ignored.
//
// [Parse] never fails on row content: rows with unusable identifiers or ratings are reported as [RowSkip]
// diagnostics, rows of unknown type are counted and dropped, and duplicate identifiers keep their first occurrence.
package records
