// Package cache provides a bounded in-memory LRU used as the speaker
// facade's process-lifetime audio cache. Capacity is measured in bytes
// of stored audio; the least recently used entries are evicted to make
// room, keeping the cache from growing without bound in a long-running
// host.
package cache
