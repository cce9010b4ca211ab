package pipeline

import (
	"slices"
	"sort"
)

// Selection is the set of output item indices an action applies to,
// used to scope feedback or regeneration to a subset of reference
// images or storyboard clips. Indices refer to the Index field of the
// output items, not slice positions.
type Selection []int

// DefaultSelection returns the selection used when the user has not
// chosen any items. The reference image stage defaults to the first
// image's index; the storyboard stage is multi-select with no default;
// every other stage has no selectable items.
func DefaultSelection(stage Stage, sess *Session) Selection {
	if stage != StageReferenceImage || sess == nil {
		return nil
	}
	out := sess.Outputs.ReferenceImage
	if out == nil || len(out.Images) == 0 {
		return nil
	}
	return Selection{out.Images[0].Index}
}

// Normalize returns the effective selection for an action on the given
// stage: the explicit selection when non-empty (deduplicated, sorted),
// otherwise the stage default.
func (sel Selection) Normalize(stage Stage, sess *Session) Selection {
	if len(sel) == 0 {
		return DefaultSelection(stage, sess)
	}
	out := make(Selection, 0, len(sel))
	for _, idx := range sel {
		if !slices.Contains(out, idx) {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

// Contains reports whether the selection includes the given item index.
func (sel Selection) Contains(idx int) bool {
	return slices.Contains(sel, idx)
}

// Toggle returns a new selection with the given index added if absent
// or removed if present.
func (sel Selection) Toggle(idx int) Selection {
	if !sel.Contains(idx) {
		out := make(Selection, len(sel), len(sel)+1)
		copy(out, sel)
		return append(out, idx)
	}
	out := make(Selection, 0, len(sel)-1)
	for _, i := range sel {
		if i != idx {
			out = append(out, i)
		}
	}
	return out
}
