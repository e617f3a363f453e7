package schedule

// =============================================================================
// DEEP COPIES
// =============================================================================
//
// Every aggregate owns its tree. These copy constructors walk the tree level
// by level so a copy never shares a backing array with its source. Shift has
// only value fields, so assigning it copies it.

func (sg SubGroup) Clone() SubGroup {
	out := sg
	out.Shifts = append([]Shift(nil), sg.Shifts...)
	if out.Shifts == nil {
		out.Shifts = []Shift{}
	}
	return out
}

func (g Group) Clone() Group {
	out := g
	out.SubGroups = make([]SubGroup, len(g.SubGroups))
	for i, sg := range g.SubGroups {
		out.SubGroups[i] = sg.Clone()
	}
	return out
}

// CloneGroups deep-copies a whole hierarchy.
func CloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Groups = CloneGroups(t.Groups)
	return &out
}

func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	out := *r
	out.Groups = CloneGroups(r.Groups)
	return &out
}

func (ts *Timesheet) Clone() *Timesheet {
	if ts == nil {
		return nil
	}
	out := *ts
	out.Groups = CloneGroups(ts.Groups)
	return &out
}

func (b *Bid) Clone() *Bid {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}
