package roster

import (
	"context"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// AUTO-POPULATION - Round-robin assignment
// =============================================================================
//
// Candidates for a shift are the employees whose department equals the
// Group name and whose role and tier match the shift exactly. The pick is
//
//	candidates[index % len(candidates)]
//
// where index is the number of shifts already visited in the roster,
// counting every shift (open, already assigned, or without candidates).
// Repeated roles within a department therefore spread across the available
// staff instead of always landing on the first match. Shifts with no
// candidate stay open; that is not an error.

// Populate assigns employees from dir to the open shifts of groups in
// place and returns how many shifts it filled.
func Populate(ctx context.Context, dir schedule.Directory, groups []schedule.Group) (int, error) {
	byDept := make(map[string][]schedule.Employee)
	index, filled := 0, 0

	for gi := range groups {
		g := &groups[gi]
		staff, ok := byDept[g.Name]
		if !ok {
			var err error
			staff, err = dir.EmployeesByDepartment(ctx, g.Name)
			if err != nil {
				return filled, err
			}
			byDept[g.Name] = staff
		}

		for si := range g.SubGroups {
			shifts := g.SubGroups[si].Shifts
			for i := range shifts {
				sh := &shifts[i]
				visited := index
				index++

				if !sh.IsOpen() {
					continue
				}
				candidates := matching(staff, sh)
				if len(candidates) == 0 {
					continue
				}
				sh.EmployeeID = candidates[visited%len(candidates)].ID
				sh.Status = schedule.ShiftAssigned
				filled++
			}
		}
	}
	return filled, nil
}

func matching(staff []schedule.Employee, sh *schedule.Shift) []schedule.Employee {
	var out []schedule.Employee
	for _, e := range staff {
		if e.Role == sh.Role && e.Tier == sh.RemunerationLevel {
			out = append(out, e)
		}
	}
	return out
}
