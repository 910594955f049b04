package okd

// ToneGenerator emulates the native parameter-memory model of the
// format's FM/AWM synth: a flat address space written by SysEx
// parameter-change messages, from which General MIDI controller
// messages are derived by diffing before/after snapshots of a
// per-part field table. One instance is scoped to a single input
// P-track's SysEx session (construct, feed messages in order, read
// GM deltas after each).
type ToneGenerator struct {
	memory          [0x200000]byte
	soundModuleMode byte
}

const (
	tgMemoryLimit  = 0x200000
	tgResetAddress = 0x00007F
	tgPartBase     = 0x008000
	tgPartStride   = 0x80 // entry_index << 7
	tgPartCount    = 0x20
)

// tgPartIndexToEntry and tgEntryToPartIndex are the fixed permutation
// between MIDI part number (0-31, channel-major with port-2 offset
// folded in) and native parameter-memory entry index. Part 9 (the
// drum channel, channel 10 when counted from 1) maps to entry 0 and
// parts 0-8 to entries 1-9; parts 16-25 repeat the pattern from entry
// 0x10.
var tgPartIndexToEntry = [tgPartCount]int{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x00, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
	0x19, 0x10, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F,
}

var tgEntryToPartIndex = [tgPartCount]int{
	0x09, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
	0x07, 0x08, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	0x19, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16,
	0x17, 0x18, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F,
}

// Per-entry field offsets for the parameters the GM projection
// tracks. These are literal constants from the factory default
// layout, not derived.
const (
	tgOffsetProgramNumber    = 0x03
	tgOffsetVolume           = 0x1B
	tgOffsetPan              = 0x1E
	tgOffsetChorusSend       = 0x24
	tgOffsetReverbSend       = 0x25
	tgOffsetVariationSend    = 0x26
	tgOffsetVibratoRate      = 0x27
	tgOffsetVibratoDepth     = 0x28
	tgOffsetVibratoDelay     = 0x2E
	tgOffsetBendPitchControl = 0x41
	tgOffsetPortamentoSwitch = 0x5F
	tgOffsetPortamentoTime   = 0x60
)

// NewToneGenerator constructs a tone generator with factory defaults
// loaded into every one of the 32 parts.
func NewToneGenerator() *ToneGenerator {
	var tg = &ToneGenerator{}
	tg.applyDefaults()
	return tg
}

func (tg *ToneGenerator) entryAddress(entryIndex int) int {
	return tgPartBase + entryIndex*tgPartStride
}

func (tg *ToneGenerator) applyDefaults() {
	for entryIndex := 0; entryIndex < tgPartCount; entryIndex++ {
		var base = tg.entryAddress(entryIndex)
		tg.memory[base+0x01] = 0x00
		tg.memory[base+0x02] = 0x00
		tg.memory[base+tgOffsetProgramNumber] = 0x00
		tg.memory[base+0x04] = byte(entryIndex)
		for i := 0x05; i <= 0x14; i++ {
			tg.memory[base+i] = 0x01
		}
		for i := 0x15; i <= 0x18; i++ {
			tg.memory[base+i] = 0x01
		}
		tg.memory[base+0x19] = 0x08
		tg.memory[base+0x1A] = 0x00
		tg.memory[base+tgOffsetVolume] = 0x64
		tg.memory[base+0x1C] = 0x40
		tg.memory[base+0x1D] = 0x40
		tg.memory[base+tgOffsetPan] = 0x40
		tg.memory[base+0x1F] = 0x00
		tg.memory[base+0x20] = 0x7F
		tg.memory[base+0x21] = 0x10
		tg.memory[base+0x22] = 0x11
		tg.memory[base+0x23] = 0x7F
		tg.memory[base+tgOffsetChorusSend] = 0x00
		tg.memory[base+tgOffsetReverbSend] = 0x40
		tg.memory[base+tgOffsetVariationSend] = 0x00
		for i := 0x27; i <= 0x3D; i++ {
			tg.memory[base+i] = 0x40
		}
		tg.memory[base+0x3E] = 0x0A
		tg.memory[base+0x3F] = 0x00
		tg.memory[base+tgOffsetBendPitchControl] = 0x42
		tg.memory[base+0x42] = 0x40
		tg.memory[base+0x43] = 0x40
		tg.memory[base+0x44] = 0x00
		tg.memory[base+0x45] = 0x00
		for _, group := range []int{0x47, 0x4D, 0x53, 0x59} {
			tg.memory[base+group] = 0x40
			tg.memory[base+group+1] = 0x40
			tg.memory[base+group+2] = 0x40
		}
		tg.memory[base+tgOffsetPortamentoSwitch] = 0x00
		tg.memory[base+tgOffsetPortamentoTime] = 0x00
	}
}

// IsSysExMessage reports whether data (the full F0..F7 payload
// including both framing bytes) looks like a well-formed SysEx.
func IsSysExMessage(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xF0 && data[len(data)-1] == 0xF7
}

func isUniversalRealtime(data []byte) bool {
	return IsSysExMessage(data) && len(data) >= 8 && data[1] == 0x7F
}

func isUniversalNonRealtime(data []byte) bool {
	return IsSysExMessage(data) && len(data) >= 6 && data[1] == 0x7E
}

// isNativeParameterChange reports whether data is a DAM-native
// Yamaha-style parameter-change frame: F0 43 1x model hi mid lo …
// checksum F7.
func isNativeParameterChange(data []byte) bool {
	return IsSysExMessage(data) && len(data) >= 9 && data[1] == 0x43 && data[2]&0xF0 == 0x10
}

// ApplySysEx feeds one SysEx message (full F0..F7 bytes) into the
// model. Malformed prefixes/suffixes are reported as BadSysexFrame;
// anything that isn't one of the three recognized classes is a no-op
// (ignored, not an error — the dialect carries vendor SysEx the model
// doesn't need to track).
func (tg *ToneGenerator) ApplySysEx(data []byte) error {
	if !IsSysExMessage(data) {
		return ErrBadSysexFrame
	}

	switch {
	case isUniversalRealtime(data):
		return tg.applyUniversalRealtime(data)
	case isUniversalNonRealtime(data):
		return tg.applyUniversalNonRealtime(data)
	case isNativeParameterChange(data):
		return tg.applyNativeParameterChange(data)
	default:
		return nil
	}
}

func (tg *ToneGenerator) applyUniversalRealtime(data []byte) error {
	var sub = data[4]
	switch sub {
	case 0x01:
		tg.memory[0x000004] = data[5]
	case 0x02:
		tg.memory[0x000006] = data[5]
	}
	return nil
}

func (tg *ToneGenerator) applyUniversalNonRealtime(data []byte) error {
	var sub = data[4]
	if sub == 0x01 {
		tg.soundModuleMode = data[5]
	}
	return nil
}

func (tg *ToneGenerator) applyNativeParameterChange(data []byte) error {
	// data: F0 43 1x model addr_hi addr_mid addr_lo bytes... checksum F7
	if len(data) < 9 {
		return ErrBadSysexFrame
	}
	var address = int(data[4]&0x7F)<<14 | int(data[5]&0x7F)<<7 | int(data[6]&0x7F)
	var payload = data[7 : len(data)-2] // strip checksum and F7

	if address == tgResetAddress {
		tg.applyDefaults()
		return nil
	}

	if address+len(payload) > tgMemoryLimit {
		return ErrBadSysexFrame
	}
	copy(tg.memory[address:], payload)
	return nil
}

// PartSnapshot is the subset of per-part fields the GM projection
// tracks.
type PartSnapshot struct {
	ProgramNumber    byte
	Volume           byte
	Pan              byte
	ChorusSend       byte
	ReverbSend       byte
	VariationSend    byte
	VibratoRate      byte
	VibratoDepth     byte
	VibratoDelay     byte
	BendPitchControl byte
	PortamentoSwitch byte
	PortamentoTime   byte
}

// Snapshot captures the tracked fields for every part, indexed by part
// number 0-31.
func (tg *ToneGenerator) Snapshot() [tgPartCount]PartSnapshot {
	var out [tgPartCount]PartSnapshot
	for part := 0; part < tgPartCount; part++ {
		var base = tg.entryAddress(tgPartIndexToEntry[part])
		out[part] = PartSnapshot{
			ProgramNumber:    tg.memory[base+tgOffsetProgramNumber],
			Volume:           tg.memory[base+tgOffsetVolume],
			Pan:              tg.memory[base+tgOffsetPan],
			ChorusSend:       tg.memory[base+tgOffsetChorusSend],
			ReverbSend:       tg.memory[base+tgOffsetReverbSend],
			VariationSend:    tg.memory[base+tgOffsetVariationSend],
			VibratoRate:      tg.memory[base+tgOffsetVibratoRate],
			VibratoDepth:     tg.memory[base+tgOffsetVibratoDepth],
			VibratoDelay:     tg.memory[base+tgOffsetVibratoDelay],
			BendPitchControl: tg.memory[base+tgOffsetBendPitchControl],
			PortamentoSwitch: tg.memory[base+tgOffsetPortamentoSwitch],
			PortamentoTime:   tg.memory[base+tgOffsetPortamentoTime],
		}
	}
	return out
}

// GMEvent is a single GM controller/program-change message derived
// from a tone-generator field change.
type GMEvent struct {
	Part  byte
	Kind  string // "program", "cc", "rpn0"
	CC    byte
	Value byte
}

// ProjectChanges diffs before and after per-part snapshots and emits
// the GM events the changed fields imply, contiguous and in
// part-number order.
func ProjectChanges(before, after [tgPartCount]PartSnapshot) []GMEvent {
	var events []GMEvent
	for part := 0; part < tgPartCount; part++ {
		var b, a = before[part], after[part]
		var p = byte(part)

		if a.ProgramNumber != b.ProgramNumber {
			events = append(events, GMEvent{Part: p, Kind: "program", Value: a.ProgramNumber})
		}
		if a.Volume != b.Volume {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 7, Value: a.Volume})
		}
		if a.Pan != b.Pan {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 10, Value: a.Pan})
		}
		if a.ChorusSend != b.ChorusSend {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 93, Value: a.ChorusSend})
		}
		if a.ReverbSend != b.ReverbSend {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 91, Value: a.ReverbSend})
		}
		if a.VariationSend != b.VariationSend {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 70, Value: a.VariationSend})
		}
		if a.VibratoRate != b.VibratoRate {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 76, Value: a.VibratoRate})
		}
		if a.VibratoDepth != b.VibratoDepth {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 77, Value: a.VibratoDepth})
		}
		if a.VibratoDelay != b.VibratoDelay {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 78, Value: a.VibratoDelay})
		}
		if a.BendPitchControl != b.BendPitchControl {
			events = append(events, GMEvent{Part: p, Kind: "rpn0", Value: a.BendPitchControl - 0x40})
		}
		if a.PortamentoSwitch != b.PortamentoSwitch {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 65, Value: portamentoSwitchValue(a.PortamentoSwitch)})
		}
		if a.PortamentoTime != b.PortamentoTime {
			events = append(events, GMEvent{Part: p, Kind: "cc", CC: 5, Value: a.PortamentoTime})
		}
	}
	return events
}

// InitialBurst emits the full current state of every part as if every
// tracked field had just changed — the "track setup" preamble the
// orchestrator sends the first time a port is used. Unlike
// ProjectChanges, which emits only fields that differ between two
// snapshots, this emits every tracked field of every part.
func InitialBurst(state [tgPartCount]PartSnapshot) []GMEvent {
	var events []GMEvent
	for part := 0; part < tgPartCount; part++ {
		var a = state[part]
		var p = byte(part)
		events = append(events,
			GMEvent{Part: p, Kind: "program", Value: a.ProgramNumber},
			GMEvent{Part: p, Kind: "cc", CC: 7, Value: a.Volume},
			GMEvent{Part: p, Kind: "cc", CC: 10, Value: a.Pan},
			GMEvent{Part: p, Kind: "cc", CC: 93, Value: a.ChorusSend},
			GMEvent{Part: p, Kind: "cc", CC: 91, Value: a.ReverbSend},
			GMEvent{Part: p, Kind: "cc", CC: 70, Value: a.VariationSend},
			GMEvent{Part: p, Kind: "cc", CC: 76, Value: a.VibratoRate},
			GMEvent{Part: p, Kind: "cc", CC: 77, Value: a.VibratoDepth},
			GMEvent{Part: p, Kind: "cc", CC: 78, Value: a.VibratoDelay},
			GMEvent{Part: p, Kind: "rpn0", Value: a.BendPitchControl - 0x40},
			GMEvent{Part: p, Kind: "cc", CC: 65, Value: portamentoSwitchValue(a.PortamentoSwitch)},
			GMEvent{Part: p, Kind: "cc", CC: 5, Value: a.PortamentoTime},
		)
	}
	return events
}

// portamentoSwitchValue folds the native on/off byte into the GM
// convention of 0x00 or 0x7F.
func portamentoSwitchValue(v byte) byte {
	if v == 0 {
		return 0
	}
	return 0x7F
}
