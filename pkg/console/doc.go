// Package console holds the grid views of the administration console and
// the connection registry that owns them.
//
// A view binds one grid controller to a catalog source: PartitionsView lists
// the partitions of a collection, PropertiesView the merged properties of a
// collection or database. Views are independent and each one serializes
// access to its controller with its own mutex.
//
// Toolbar actions follow a two step flow. Triggering an action without
// params opens its dialog through the view's Notifier. Triggering it again
// with params performs the backend call, reports a message and refreshes
// the view.
package console
