package okd

import "errors"

// Error taxonomy the core surfaces. Envelope and chunk-framer errors are
// fatal for the pipeline; per-event errors inside M/P-track decoding are
// recovered locally (logged and skipped) to mirror the source format's
// tolerance of malformed karaoke files.
var (
	ErrBadMagic         = errors.New("okd: envelope magic mismatch after descrambling")
	ErrUnknownKey       = errors.New("okd: scramble key index not detectable")
	ErrTruncatedHeader  = errors.New("okd: short read in envelope header")
	ErrTruncatedChunk   = errors.New("okd: short read in chunk payload")
	ErrCorruptVarInt    = errors.New("okd: variable-int has a fourth continuation limb")
	ErrBadSysexFrame    = errors.New("okd: malformed SysEx frame")
	ErrUnknownStatus    = errors.New("okd: status byte outside the dialect's table")
	ErrMissingTrackInfo = errors.New("okd: P-track encountered before any track-info chunk")
	ErrNoMelodyTrack    = errors.New("okd: melody track not found")
)
