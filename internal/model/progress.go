package model

import (
	"encoding/json"
)

// Progress sentinels.
const (
	// StartedPercent is reported right after task creation so clients see
	// movement before any real work happened.
	StartedPercent = 5

	// FailedPercent is the sticky terminal failure value for tasks and items.
	FailedPercent = -1
)

// Kind discriminates the progress variants.
type Kind int

const (
	// KindSimple is a single-item download tracked by one percent value.
	KindSimple Kind = iota

	// KindComposite is a playlist download tracked per item with a derived
	// aggregate percent.
	KindComposite
)

// Item is the per-entry progress slot of a composite task.
type Item struct {
	Title    string `json:"title"`
	Percent  int    `json:"percent"`
	Filename string `json:"filename,omitempty"`
}

// Progress is the tagged progress variant. The zero value is Simple(0),
// which doubles as the answer for unknown task ids.
type Progress struct {
	kind      Kind
	percent   int // simple percent, or the pinned composite aggregate
	finalized bool
	items     []Item
}

// Simple returns single-item progress at the given percent.
func Simple(percent int) Progress {
	return Progress{kind: KindSimple, percent: percent}
}

// Failed returns the terminal failure progress for a simple task.
func Failed() Progress {
	return Simple(FailedPercent)
}

// Composite returns in-progress composite progress over the given items.
func Composite(items []Item) Progress {
	return Progress{kind: KindComposite, items: items}
}

// Kind returns the variant tag.
func (p Progress) Kind() Kind { return p.kind }

// Items returns the composite item slots. Nil for simple progress.
func (p Progress) Items() []Item { return p.items }

// Finalized reports whether the composite aggregate has been pinned.
func (p Progress) Finalized() bool { return p.finalized }

// Global returns the aggregate percent. For composite progress it is derived
// as the floor of the item mean until finalized; failed items contribute zero
// but stay in the denominator. Once finalized the pinned value is returned.
func (p Progress) Global() int {
	if p.kind == KindSimple || p.finalized {
		return p.percent
	}
	if len(p.items) == 0 {
		return 0
	}
	sum := 0
	for _, it := range p.items {
		if it.Percent > 0 {
			sum += it.Percent
		}
	}
	return sum / len(p.items)
}

// Finalize pins the composite aggregate to percent. The pinned value is
// sticky: derivation from items stops.
func (p Progress) Finalize(percent int) Progress {
	p.percent = percent
	p.finalized = true
	return p
}

// SetItemPercent applies an item-level update. Updates are monotonic per
// item: a lower value is dropped. The failure sentinel is accepted once and
// is sticky afterwards.
func (p *Progress) SetItemPercent(idx, percent int) {
	if p.kind != KindComposite || idx < 0 || idx >= len(p.items) {
		return
	}
	cur := p.items[idx].Percent
	if cur == FailedPercent {
		return
	}
	if percent != FailedPercent && percent < cur {
		return
	}
	p.items[idx].Percent = percent
}

// SetItemFilename records the result file for one item slot.
func (p *Progress) SetItemFilename(idx int, name string) {
	if p.kind != KindComposite || idx < 0 || idx >= len(p.items) {
		return
	}
	p.items[idx].Filename = name
}

// Clone deep-copies the item slice so concurrent readers never alias a slice
// a worker goroutine is still writing through.
func (p Progress) Clone() Progress {
	if p.items == nil {
		return p
	}
	items := make([]Item, len(p.items))
	copy(items, p.items)
	p.items = items
	return p
}

type compositeJSON struct {
	Global int    `json:"global"`
	Items  []Item `json:"items"`
}

// MarshalJSON renders simple progress as a bare integer and composite
// progress as {"global": n, "items": [...]}.
func (p Progress) MarshalJSON() ([]byte, error) {
	if p.kind == KindSimple {
		return json.Marshal(p.percent)
	}
	return json.Marshal(compositeJSON{Global: p.Global(), Items: p.items})
}
