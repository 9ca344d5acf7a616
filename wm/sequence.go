package wm

import (
	"container/heap"
	"math"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// seqHeap orders sequence numbers on the 16 bit circle, so 65535 sorts
// before 2 as long as every pending entry lies within half the space.
type seqHeap []uint16

func (h seqHeap) Len() int           { return len(h) }
func (h seqHeap) Less(i, j int) bool { return int16(h[i]-h[j]) < 0 }
func (h seqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *seqHeap) Push(x any)        { *h = append(*h, x.(uint16)) }
func (h *seqHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// SequenceFilter swallows the notifications echoed by requests the manager
// made itself, such as reparenting a client into its frame.
type SequenceFilter struct {
	pending seqHeap
}

func (f *SequenceFilter) Remember(seq uint16) {
	heap.Push(&f.pending, seq)
}

// ShouldProcess drops every remembered number older than seq and reports
// false, consuming the entry, if seq itself was remembered.
func (f *SequenceFilter) ShouldProcess(seq uint16) bool {
	for f.pending.Len() > 0 {
		oldest := f.pending[0]
		if oldest-seq > math.MaxUint16/2 {
			heap.Pop(&f.pending)
			continue
		}
		if oldest == seq {
			heap.Pop(&f.pending)
			return false
		}
		break
	}
	return true
}

func (f *SequenceFilter) Pending() int {
	return f.pending.Len()
}

// Filter is ShouldProcess for a whole event. Events that carry no sequence
// number always pass.
func (f *SequenceFilter) Filter(ev xgb.Event) bool {
	seq, ok := sequenceOf(ev)
	if !ok {
		return true
	}
	return f.ShouldProcess(seq)
}

func sequenceOf(ev xgb.Event) (uint16, bool) {
	switch ev := ev.(type) {
	case xproto.UnmapNotifyEvent:
		return ev.Sequence, true
	case xproto.MapNotifyEvent:
		return ev.Sequence, true
	case xproto.ReparentNotifyEvent:
		return ev.Sequence, true
	case xproto.ConfigureNotifyEvent:
		return ev.Sequence, true
	case xproto.DestroyNotifyEvent:
		return ev.Sequence, true
	case xproto.MapRequestEvent:
		return ev.Sequence, true
	case xproto.ConfigureRequestEvent:
		return ev.Sequence, true
	case xproto.ButtonPressEvent:
		return ev.Sequence, true
	case xproto.ButtonReleaseEvent:
		return ev.Sequence, true
	case xproto.MotionNotifyEvent:
		return ev.Sequence, true
	case xproto.EnterNotifyEvent:
		return ev.Sequence, true
	case xproto.LeaveNotifyEvent:
		return ev.Sequence, true
	case xproto.KeyPressEvent:
		return ev.Sequence, true
	case xproto.CreateNotifyEvent:
		return ev.Sequence, true
	}
	return 0, false
}
