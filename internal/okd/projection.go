package okd

import "sort"

// ProjectedEvent is a destination-track channel-voice (or SysEx)
// message produced by track-info projection: one logical source event
// maps to zero or more of these.
type ProjectedEvent struct {
	Time  uint32
	Port  int
	Track int // destination track = port*16 + channel
	Data  []byte
}

// projectionState threads the grouping-arm flag across consecutive
// events of a single P-track.
type projectionState struct {
	groupingArmed bool
}

// ProjectEvent maps one absolute-time-stamped source event on source
// channel c to zero or more destination events.
func ProjectEvent(st *projectionState, info TrackInfoEntry, time uint32, e PTrackEvent) []ProjectedEvent {
	defer func() {
		st.groupingArmed = e.Kind == PTrackGroupingArm
	}()

	if e.Kind == PTrackGroupingArm {
		return nil
	}

	var status = e.Status
	var channel = e.Channel
	var data = append([]byte{status}, e.Data...)

	if e.Kind == PTrackRawEscape {
		// The escape byte bundle is (escapedStatus, payload...); route
		// it through verbatim, addressed by the escaped status's channel,
		// with no alternate-CC rewriting.
		var escapedStatus = e.Data[0]
		var escapedChannel = channelOf(escapedStatus)
		var rawData = append([]byte{escapedStatus}, e.Data[1:]...)
		return fanOut(info, time, escapedChannel, rawData, false)
	}

	if e.Kind == PTrackAlternateCCAx {
		var cc = info.ChannelInfo[channel].ControlChangeAx
		data = []byte{0xB0 | channel, cc, e.Data[0]}
	} else if e.Kind == PTrackAlternateCCCx {
		var cc = info.ChannelInfo[channel].ControlChangeCx
		data = []byte{0xB0 | channel, cc, e.Data[0]}
	}

	if e.Kind == PTrackSysEx && status == 0xF0 {
		var out []ProjectedEvent
		for port := 0; port < 16; port++ {
			if info.SystemExPorts&(1<<uint(port)) != 0 {
				out = append(out, ProjectedEvent{Time: time, Port: port, Track: port * 16, Data: data})
			}
		}
		return out
	}

	return fanOut(info, time, channel, data, st.groupingArmed)
}

// fanOut resolves the grouping bitmask for channel c (armed groups
// vs. single-channel default) and emits one event per destination
// port/channel pair.
func fanOut(info TrackInfoEntry, time uint32, channel byte, data []byte, groupingArmed bool) []ProjectedEvent {
	var grp uint16
	if groupingArmed {
		grp = info.ChannelGroups[channel]
	} else if info.SingleChannelGroups[channel] != 0 {
		grp = info.SingleChannelGroups[channel]
	} else {
		grp = 1 << uint(channel)
	}

	var statusClassByte = data[0] & 0xF0
	var ports = info.ChannelInfo[channel].Ports

	var out []ProjectedEvent
	for port := 0; port < 16; port++ {
		if ports&(1<<uint(port)) == 0 {
			continue
		}
		for dest := 0; dest < 16; dest++ {
			if grp&(1<<uint(dest)) == 0 {
				continue
			}
			var destData = append([]byte(nil), data...)
			destData[0] = statusClassByte | byte(dest)
			out = append(out, ProjectedEvent{
				Time:  time,
				Port:  port,
				Track: port*16 + dest,
				Data:  destData,
			})
		}
	}
	return out
}

// AbsoluteTimeEvent is a note-paired, fully time-stamped message ready
// for delta-time re-derivation on write.
type AbsoluteTimeEvent struct {
	Time  uint32
	Port  int
	Track int
	Data  []byte
	seq   int // stable tie-break: insertion order within equal time
}

// BuildAbsoluteTimeTrack projects a P-track's events (with track-info
// routing) into a time-sorted absolute event list, synthesizing
// note-off events from the stored note-on duration.
func BuildAbsoluteTimeTrack(info TrackInfoEntry, events []PTrackEvent) []AbsoluteTimeEvent {
	var st = &projectionState{}
	var time uint32
	var out []AbsoluteTimeEvent
	var seq int

	var shiftDuration = !IsGroupingStatus(info.TrackStatus)

	for _, e := range events {
		time += e.Delta

		if e.Kind == PTrackNote {
			var channel = e.Channel
			var armed = st.groupingArmed
			var noteOnData = []byte{0x90 | channel, e.Data[0], e.Data[1]}
			for _, pe := range fanOut(info, time, channel, noteOnData, armed) {
				out = append(out, AbsoluteTimeEvent{Time: pe.Time, Port: pe.Port, Track: pe.Track, Data: pe.Data, seq: seq})
				seq++
			}
			st.groupingArmed = false

			var duration = e.Duration
			if shiftDuration {
				duration *= 4
			}
			// The 8n composite form stores an explicit note-off velocity
			// after the note-on velocity; 9n notes reuse the on velocity.
			var noteOffVelocity byte = 64
			if len(e.Data) >= 3 {
				noteOffVelocity = e.Data[2]
			} else if len(e.Data) >= 2 {
				noteOffVelocity = e.Data[1]
			}
			// The note-off fans to the same destinations as its note-on.
			var noteOffData = []byte{0x80 | channel, e.Data[0], noteOffVelocity}
			for _, pe := range fanOut(info, time+duration, channel, noteOffData, armed) {
				out = append(out, AbsoluteTimeEvent{Time: pe.Time, Port: pe.Port, Track: pe.Track, Data: pe.Data, seq: seq})
				seq++
			}
			continue
		}

		for _, pe := range ProjectEvent(st, info, time, e) {
			out = append(out, AbsoluteTimeEvent{Time: pe.Time, Port: pe.Port, Track: pe.Track, Data: pe.Data, seq: seq})
			seq++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].seq < out[j].seq
	})

	return out
}

// DeltaEvent is one (delta_ticks, bytes) pair for a single destination
// track, re-derived from an absolute-time track on write.
type DeltaEvent struct {
	Delta uint32
	Data  []byte
}

// ToDeltaTracks groups an absolute-time track by destination track and
// re-derives each delta from the previous event on the same track.
func ToDeltaTracks(events []AbsoluteTimeEvent) map[int][]DeltaEvent {
	var lastTime = map[int]uint32{}
	var out = map[int][]DeltaEvent{}

	for _, e := range events {
		var delta = e.Time - lastTime[e.Track]
		out[e.Track] = append(out[e.Track], DeltaEvent{Delta: delta, Data: e.Data})
		lastTime[e.Track] = e.Time
	}

	return out
}
