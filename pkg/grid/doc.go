// Package grid implements the in-memory windowing engine behind every data
// grid in the console: stable typed sorting, page slicing, and key-based row
// selection, composed by a Controller into a render-ready view model.
//
// The package performs no I/O. Callers fetch and filter records themselves
// and hand the full sequence to Controller.SetRecords on every change
// (initial load, after a mutation, after the search text changes). The
// controller re-derives the sorted, paginated view from that sequence plus
// its own stored scalars.
//
// # Components
//
//   - Sort comparator: CompareValues, Compare and SortRecords order records by
//     a string, number or date view of a column's field.
//   - Pagination: page size and current page, clamped so that the current
//     page always exists.
//   - Selection: a replace-only set of records identified by primary key,
//     optionally narrowed to a single record.
//   - Controller: the composition root, plus caller-supplied column and
//     toolbar configuration.
//
// A Controller is not safe for concurrent use. It models a UI event loop:
// each call completes before the next one starts, and callers serialize
// access when events can arrive concurrently.
package grid
