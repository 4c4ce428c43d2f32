// Package ffmpeg builds the transcode invocation that turns a downloaded
// audio file into the mono 16kHz PCM WAV the separator expects.
package ffmpeg
