package proposal

// Accordion keeps at most one section open.
type Accordion struct {
	Active *int
}

// Toggle opens index and closes any other section, or closes index when it is
// already open. Indexes outside the proposal are ignored.
func (a *Accordion) Toggle(p *Proposal, index int) {
	if !p.HasSection(index) {
		return
	}
	if a.IsOpen(index) {
		a.Active = nil
		return
	}
	a.Active = &index
}

func (a Accordion) IsOpen(index int) bool {
	return a.Active != nil && *a.Active == index
}
