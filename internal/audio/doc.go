// Package audio provides single-slot playback of cached WAV audio. At
// most one clip plays at a time; starting a new one always stops and
// discards the previous clip, whether or not it had finished.
package audio
