package protocol

import (
	"cmp"
	"slices"
)

// HeartRateSample is one point of a heart-rate series.
type HeartRateSample struct {
	Timestamp uint32 `json:"timestamp"`
	HeartRate uint8  `json:"heart_rate"`
}

// ExtractHeartRateSeries parses every buffer in raws and returns the
// heart-rate samples sorted by timestamp. Buffers that fail to parse or
// carry no heart-rate record are skipped. Samples with equal timestamps
// keep their input order.
func ExtractHeartRateSeries(raws [][]byte) []HeartRateSample {
	series := make([]HeartRateSample, 0, len(raws))
	for _, raw := range raws {
		f, err := Parse(raw)
		if err != nil {
			continue
		}
		if hr, ok := f.HeartRate(); ok {
			series = append(series, HeartRateSample{Timestamp: hr.Timestamp, HeartRate: hr.HeartRate})
		}
	}

	slices.SortStableFunc(series, func(a, b HeartRateSample) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return series
}

// CommandKey identifies a (packet type, command) pair.
type CommandKey struct {
	Type    PacketType `json:"type"`
	Command uint8      `json:"command"`
}

// CommandSet is a set of distinct command keys.
type CommandSet map[CommandKey]struct{}

// Add inserts k into the set.
func (s CommandSet) Add(k CommandKey) {
	s[k] = struct{}{}
}

// Contains reports whether k is in the set.
func (s CommandSet) Contains(k CommandKey) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the keys ordered by type, then command.
func (s CommandSet) Sorted() []CommandKey {
	keys := make([]CommandKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b CommandKey) int {
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		return cmp.Compare(a.Command, b.Command)
	})
	return keys
}

// ExtractUniqueCommands returns the distinct (type, command) pairs across
// every buffer in raws that parses. Invalid buffers are skipped.
func ExtractUniqueCommands(raws [][]byte) CommandSet {
	set := make(CommandSet)
	for _, raw := range raws {
		f, err := Parse(raw)
		if err != nil {
			continue
		}
		set.Add(CommandKey{Type: f.Type, Command: f.Command})
	}
	return set
}
