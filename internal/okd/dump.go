package okd

import (
	"fmt"
	"io"
)

// Dump writes a human-readable breakdown of the container: header
// fields, every track-info entry's per-channel routing, the M-track
// event streams with their interpretation, P-track event streams, and
// ADPCM blob sizes. The report is plain text; callers wanting another
// rendering walk the Container themselves.
func (c *Container) Dump(w io.Writer) {
	fmt.Fprintf(w, "magic=%s length=%d karaoke_id=%d adpcm_offset=%d encryption_mode=%d\n",
		string(c.Header.Magic[:]), c.Header.Length, c.Header.KaraokeID,
		c.Header.AdpcmOffset, c.Header.EncryptionMode)
	fmt.Fprintf(w, "version=%q option_data=%d bytes (%s)\n",
		string(c.Header.Version[:]), len(c.Header.OptionData), headerKindName(c.Header.Kind))
	for _, f := range c.Header.OptionFields() {
		fmt.Fprintf(w, "  %s=%d\n", f.Name, f.Value)
	}

	dumpTrackInfo(w, "track-info", c.TrackInfo)
	if c.P3Info != nil {
		dumpTrackInfo(w, "p3-track-info", *c.P3Info)
	}

	for _, sub := range sortedKeys(c.MTracks) {
		var events = c.MTracks[sub]
		fmt.Fprintf(w, "m-track %d: %d events\n", sub, len(events))
		var tick uint32
		for _, e := range events {
			tick += e.Delta
			fmt.Fprintf(w, "  t=%-8d %02X % X\n", tick, byte(e.Status), e.Payload)
		}
		dumpInterpretation(w, Interpret(events))
	}

	for _, sub := range sortedKeys(c.PTracks) {
		var events = c.PTracks[sub]
		fmt.Fprintf(w, "p-track %d: %d events\n", sub, len(events))
		var tick uint32
		for _, e := range events {
			tick += e.Delta
			if e.Kind == PTrackNote {
				fmt.Fprintf(w, "  t=%-8d %02X % X dur=%d\n", tick, e.Status, e.Data, e.Duration)
			} else {
				fmt.Fprintf(w, "  t=%-8d %02X % X\n", tick, e.Status, e.Data)
			}
		}
	}

	for i, blobs := range c.Adpcm {
		fmt.Fprintf(w, "adpcm chunk %d: %d blobs\n", i, len(blobs))
		for j, b := range blobs {
			fmt.Fprintf(w, "  blob %d: %d bytes\n", j, len(b.Data))
		}
	}

	for _, chunk := range c.Unknown {
		fmt.Fprintf(w, "unknown chunk %02X%02X%02X%02X: %d bytes\n",
			chunk.Tag[0], chunk.Tag[1], chunk.Tag[2], chunk.Tag[3], len(chunk.Payload))
	}
}

func headerKindName(k HeaderKind) string {
	switch k {
	case HeaderMmt:
		return "mmt"
	case HeaderMmk:
		return "mmk"
	case HeaderSpr:
		return "spr"
	case HeaderDio:
		return "dio"
	default:
		return "generic"
	}
}

func dumpTrackInfo(w io.Writer, label string, info TrackInfo) {
	fmt.Fprintf(w, "%s: %s, %d entries\n", label, IfThenElse(info.Extended, "extended", "short"), len(info.Entries))
	for _, e := range info.Entries {
		fmt.Fprintf(w, "  track %d status=%02X sysex_ports=%04X\n", e.TrackNumber, e.TrackStatus, e.SystemExPorts)
		for ch := 0; ch < 16; ch++ {
			var ci = e.ChannelInfo[ch]
			if ci == (ChannelInfoEntry{}) && e.SingleChannelGroups[ch] == 0 && e.ChannelGroups[ch] == 0 {
				continue
			}
			fmt.Fprintf(w, "    ch %-2d attr=%04X%s%s ports=%04X ax=%02X cx=%02X single=%04X group=%04X\n",
				ch, ci.Attribute,
				IfThenElse(ci.IsChorus(), " chorus", ""),
				IfThenElse(ci.IsGuideMelody(), " guide", ""),
				ci.Ports, ci.ControlChangeAx, ci.ControlChangeCx,
				e.SingleChannelGroups[ch], e.ChannelGroups[ch])
		}
	}
}

func dumpInterpretation(w io.Writer, interp Interpretation) {
	for _, tm := range interp.Tempos {
		fmt.Fprintf(w, "  tempo t=%d bpm=%.2f\n", tm.Tick, tm.BPM)
	}
	for _, ts := range interp.TimeSignatures {
		fmt.Fprintf(w, "  time-signature t=%d beats=%d\n", ts.Tick, ts.Beats)
	}
	for _, h := range interp.Hooks {
		fmt.Fprintf(w, "  hook %d..%d\n", h.Start, h.End)
	}
	for _, d := range interp.VisibleGuideMelodyDelimiters {
		fmt.Fprintf(w, "  guide-melody page t=%d kind=%d\n", d.Tick, d.Kind)
	}
	if interp.TwoChorusFadeOutTime != nil {
		fmt.Fprintf(w, "  two-chorus fade-out t=%d\n", *interp.TwoChorusFadeOutTime)
	}
	for _, s := range interp.SongSections {
		fmt.Fprintf(w, "  song section %d..%d\n", s.Start, s.End)
	}
	for _, s := range interp.AdpcmSections {
		fmt.Fprintf(w, "  adpcm section %d..%d\n", s.Start, s.End)
	}
}
