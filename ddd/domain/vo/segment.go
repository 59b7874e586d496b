package vo

import (
	"math"
	"sort"
)

// RawSegment provider原始分段，秒为单位
type RawSegment struct {
	StartS float64 `json:"start_s"`
	EndS   float64 `json:"end_s"`
	Text   string  `json:"text"`
}

// Segment 规范化分段，毫秒为单位
type Segment struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// SecondsToMS 秒转毫秒（四舍五入）
func SecondsToMS(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// NormalizeSegments 将provider分段规范化为不重叠的毫秒分段
//
// Rules:
//   - zero/negative-duration segments are dropped
//   - stable sort by (start_ms, end_ms, original index)
//   - an overlapping segment has its start clamped to the previous
//     segment's end; segments that become empty after clamping are dropped
//
// The result satisfies start_ms >= 0, start_ms < end_ms and
// start_ms >= previous end_ms for every retained segment.
func NormalizeSegments(raw []RawSegment) []Segment {
	type indexed struct {
		seg Segment
		idx int
	}

	normalized := make([]indexed, 0, len(raw))
	for i, r := range raw {
		start := SecondsToMS(r.StartS)
		end := SecondsToMS(r.EndS)
		if end <= start {
			continue
		}
		if start < 0 {
			start = 0
		}
		normalized = append(normalized, indexed{
			seg: Segment{StartMS: start, EndMS: end, Text: r.Text},
			idx: i,
		})
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		a, b := normalized[i], normalized[j]
		if a.seg.StartMS != b.seg.StartMS {
			return a.seg.StartMS < b.seg.StartMS
		}
		if a.seg.EndMS != b.seg.EndMS {
			return a.seg.EndMS < b.seg.EndMS
		}
		return a.idx < b.idx
	})

	cleaned := make([]Segment, 0, len(normalized))
	var prevEnd int64
	for _, n := range normalized {
		start := n.seg.StartMS
		if start < prevEnd {
			start = prevEnd
		}
		if n.seg.EndMS <= start {
			continue
		}
		cleaned = append(cleaned, Segment{StartMS: start, EndMS: n.seg.EndMS, Text: n.seg.Text})
		prevEnd = n.seg.EndMS
	}

	return cleaned
}

// SegmentsDurationMS 规范化分段的总时长（最后一段的结束时间）
func SegmentsDurationMS(segments []Segment) int64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].EndMS
}
