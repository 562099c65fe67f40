package tracker

import "sort"

// State is the per-visitor UI state of the tracker.
type State struct {
	Expanded  map[int]struct{}
	Completed map[ItemKey]struct{}
	Notes     string
	QROpen    bool
}

func NewState() State {
	return State{
		Expanded:  make(map[int]struct{}),
		Completed: make(map[ItemKey]struct{}),
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := NewState()
	for id := range s.Expanded {
		out.Expanded[id] = struct{}{}
	}
	for k := range s.Completed {
		out.Completed[k] = struct{}{}
	}
	out.Notes = s.Notes
	out.QROpen = s.QROpen
	return out
}

// ToggleCheckpointExpansion flips the expansion of checkpoint id and returns
// whether it is now expanded. Ids missing from the catalog are left alone.
func (s *State) ToggleCheckpointExpansion(c *Checklist, id int) bool {
	if !c.HasCheckpoint(id) {
		return s.IsExpanded(id)
	}
	if _, ok := s.Expanded[id]; ok {
		delete(s.Expanded, id)
		return false
	}
	s.Expanded[id] = struct{}{}
	return true
}

func (s State) IsExpanded(id int) bool {
	_, ok := s.Expanded[id]
	return ok
}

// ToggleItemCompletion flips the completion of the item at key and returns
// whether it is now completed. Keys outside the catalog are ignored.
func (s *State) ToggleItemCompletion(c *Checklist, key ItemKey) bool {
	if !c.HasItem(key) {
		return s.IsItemCompleted(key)
	}
	if _, ok := s.Completed[key]; ok {
		delete(s.Completed, key)
		return false
	}
	s.Completed[key] = struct{}{}
	return true
}

func (s State) IsItemCompleted(key ItemKey) bool {
	_, ok := s.Completed[key]
	return ok
}

// OpenQR and CloseQR drive the payment modal: Closed -> Open -> Closed.
func (s *State) OpenQR()  { s.QROpen = true }
func (s *State) CloseQR() { s.QROpen = false }

// ExpandedIDs returns the expanded checkpoint ids in ascending order.
func (s State) ExpandedIDs() []int {
	ids := make([]int, 0, len(s.Expanded))
	for id := range s.Expanded {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CompletedKeys returns the completed keys in catalog order.
func (s State) CompletedKeys() []ItemKey {
	keys := make([]ItemKey, 0, len(s.Completed))
	for k := range s.Completed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.CheckpointID != b.CheckpointID {
			return a.CheckpointID < b.CheckpointID
		}
		if a.SubIndex != b.SubIndex {
			return a.SubIndex < b.SubIndex
		}
		return a.ItemIndex < b.ItemIndex
	})
	return keys
}
