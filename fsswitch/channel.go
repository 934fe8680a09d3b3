package fsswitch

import "strconv"

// ChannelTimetable mirrors FreeSWITCH's switch_channel_timetable_t.
// Timestamps are epoch microseconds; a value of 0 means the corresponding
// event never occurred (e.g. Hungup == 0 means the channel has not hung
// up yet), while an absent pointer means the header was missing or
// unparseable.
type ChannelTimetable struct {
	ProfileCreated *int64
	Created        *int64
	Answered       *int64
	Progress       *int64
	ProgressMedia  *int64
	Hungup         *int64
	Transferred    *int64
	Resurrected    *int64
	Bridged        *int64
	LastHold       *int64
	HoldAccum      *int64
}

var timetableFields = []struct {
	suffix string
	set    func(*ChannelTimetable, int64)
}{
	{"Profile-Created-Time", func(t *ChannelTimetable, v int64) { t.ProfileCreated = &v }},
	{"Channel-Created-Time", func(t *ChannelTimetable, v int64) { t.Created = &v }},
	{"Channel-Answered-Time", func(t *ChannelTimetable, v int64) { t.Answered = &v }},
	{"Channel-Progress-Time", func(t *ChannelTimetable, v int64) { t.Progress = &v }},
	{"Channel-Progress-Media-Time", func(t *ChannelTimetable, v int64) { t.ProgressMedia = &v }},
	{"Channel-Hangup-Time", func(t *ChannelTimetable, v int64) { t.Hungup = &v }},
	{"Channel-Transfer-Time", func(t *ChannelTimetable, v int64) { t.Transferred = &v }},
	{"Channel-Resurrect-Time", func(t *ChannelTimetable, v int64) { t.Resurrected = &v }},
	{"Channel-Bridged-Time", func(t *ChannelTimetable, v int64) { t.Bridged = &v }},
	{"Channel-Last-Hold", func(t *ChannelTimetable, v int64) { t.LastHold = &v }},
	{"Channel-Hold-Accum", func(t *ChannelTimetable, v int64) { t.HoldAccum = &v }},
}

// Timetable extracts a ChannelTimetable from e's headers using the given
// prefix (wire headers are "{prefix}-{suffix}", e.g.
// "Caller-Channel-Created-Time"). ok is false if none of the timetable
// headers were present and parseable.
func (e *Event) Timetable(prefix string) (ChannelTimetable, bool) {
	var tt ChannelTimetable
	found := false
	for _, f := range timetableFields {
		v, ok := e.Header(prefix + "-" + f.suffix)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		f.set(&tt, n)
		found = true
	}
	if !found {
		return ChannelTimetable{}, false
	}
	return tt, true
}

// CallerTimetable extracts the "Caller" prefixed timetable.
func (e *Event) CallerTimetable() (ChannelTimetable, bool) { return e.Timetable("Caller") }

// OtherLegTimetable extracts the "Other-Leg" prefixed timetable.
func (e *Event) OtherLegTimetable() (ChannelTimetable, bool) { return e.Timetable("Other-Leg") }
