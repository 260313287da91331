package core

// patchPeriods reconciles periods into the nested sequence of their owning
// personnel declaration. A period whose owner is not held is dropped; it
// returns how many were dropped so callers can report it.
func patchPeriods(owners []*PersonnelDeclaration, periods []PeriodPatch) (dropped int) {
	for _, period := range periods {
		i := indexOf(owners, period.OwnerID())
		if i < 0 {
			dropped++
			continue
		}
		owner := owners[i]
		owner.Periods = upsert(owner.Periods, []PeriodPatch{period})
	}
	return dropped
}
