// Package inmemorystore provides a thread-safe, in-memory implementation
// of the rulecache.Cache interface. It is used when no cache file is
// configured and in tests.
package inmemorystore
