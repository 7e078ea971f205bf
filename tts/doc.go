// Package tts supervises a local out-of-process text-to-speech worker
// and serves synthesized audio through a layered cache. Most requests
// never reach the worker: a read-through file cache shared with the
// worker answers them directly, fronted by a bounded in-memory cache in
// the speaker facade. The supervisor owns at most one worker process,
// coalesces concurrent start requests onto a single spawn attempt, and
// recovers from unexpected worker exits.
package tts
