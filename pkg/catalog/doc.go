// Package catalog defines the vector database objects the console shows
// (databases, collections, partitions and their properties) and the service
// interfaces through which backends expose them.
//
// Backends live in subpackages: memory for tests and demos, postgres for a
// persistent catalog, and milvus for a live Milvus server reached over its
// RESTful API. This package holds only shared types, helpers and sentinel
// errors.
package catalog
