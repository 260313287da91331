package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gtasync/pkg/domain"
)

func seedElements(t *testing.T, svc *Service, patches ...ElementPatch) {
	t.Helper()
	if err := svc.RefreshElements(context.Background(), ElementsPayload{Action: ElementReplace, Elements: patches}); err != nil {
		t.Fatalf("seed elements: %v", err)
	}
}

func heldElements(t *testing.T, svc *Service) []*Element {
	t.Helper()
	var out []*Element
	if err := svc.View(context.Background(), func(v View) error {
		out = v.Elements()
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	return out
}

func TestRefreshElementsDefaultsToUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 1, Label: strPtr("one")}, ElementPatch{ID: 2, Label: strPtr("two")})

	if err := svc.RefreshElements(ctx, ElementsPayload{Elements: []ElementPatch{
		{ID: 2, Kind: strPtr("team")},
		{ID: 3, Label: strPtr("three")},
	}}); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	held := heldElements(t, svc)
	if got, want := elementIDs(held), []int64{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if held[1].Label != "two" || held[1].Kind != "team" {
		t.Fatalf("expected field merge on element 2, got %+v", held[1])
	}
}

func TestRefreshElementsReplaceAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 1}, ElementPatch{ID: 2}, ElementPatch{ID: 3}, ElementPatch{ID: 4})

	if err := svc.RefreshElements(ctx, ElementsPayload{Action: ElementRemove, IDs: []int64{3, 1, 77}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, want := elementIDs(heldElements(t, svc)), []int64{2, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("after remove got %v want %v", got, want)
	}

	if err := svc.RefreshElements(ctx, ElementsPayload{Action: ElementReplace}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if held := heldElements(t, svc); len(held) != 0 {
		t.Fatalf("replace with nothing should empty the collection, got %v", elementIDs(held))
	}
}

func TestRefreshElementsRejectsUnknownActionWithoutMutation(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 1, Label: strPtr("one")})
	before := svc.Snapshot()

	err := svc.RefreshElements(ctx, ElementsPayload{Action: "merge", Elements: []ElementPatch{{ID: 1, Label: strPtr("x")}, {ID: 2}}})
	if !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	var invalid *domain.InvalidActionError
	if !errors.As(err, &invalid) || invalid.Command != "refreshElements" || invalid.Action != "merge" {
		t.Fatalf("unexpected error detail: %#v", err)
	}
	if after := svc.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed by rejected command:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestLoadOpensHeldElement(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 5, Label: strPtr("five")})

	res := svc.Load(ctx, 5)
	if res.FetchRequired || res.Element == nil || res.Element.ID != 5 {
		t.Fatalf("unexpected load result: %+v", res)
	}
	_ = svc.View(ctx, func(v View) error {
		if v.Opened() != res.Element {
			t.Fatalf("opened pointer should reference the held element")
		}
		return nil
	})

	if err := svc.Unload(ctx); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if snap := svc.Snapshot(); snap.Opened != nil {
		t.Fatalf("expected nothing open after unload, got %+v", snap.Opened)
	}
}

func TestLoadMissSignalsFetch(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 1})
	if err := svc.Open(ctx, &Element{ID: 1}); err != nil {
		t.Fatalf("open: %v", err)
	}
	before := svc.Snapshot()

	res := svc.Load(ctx, 404)

	if !res.FetchRequired || res.Element != nil {
		t.Fatalf("expected FetchRequired, got %+v", res)
	}
	if after := svc.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("load miss must not change state")
	}
}

func TestRefreshOpenedMergesIntoSharedRecord(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 1, Label: strPtr("one"), Kind: strPtr("site")})
	svc.Load(ctx, 1)

	if err := svc.RefreshOpened(ctx, ElementPatch{ID: 999, Label: strPtr("renamed")}); err != nil {
		t.Fatalf("refresh opened: %v", err)
	}

	held := heldElements(t, svc)
	if held[0].Label != "renamed" || held[0].Kind != "site" || held[0].ID != 1 {
		t.Fatalf("opened element and collection member should both show the merge, got %+v", held[0])
	}
}

func TestRefreshOpenedWithNothingOpenIsNoop(t *testing.T) {
	svc := NewInMemoryService()
	before := svc.Snapshot()

	if err := svc.RefreshOpened(context.Background(), ElementPatch{Label: strPtr("x")}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if after := svc.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed")
	}
}

func TestSetTmpElementStoresDetachedCopy(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	original := &Element{ID: 3, Label: "draft", Fields: map[string]any{"n": 1}}

	if err := svc.SetTmpElement(ctx, original); err != nil {
		t.Fatalf("tmp: %v", err)
	}
	original.Label = "edited"
	original.Fields["n"] = 2

	snap := svc.Snapshot()
	if snap.Tmp == nil || snap.Tmp.Label != "draft" || snap.Tmp.Fields["n"] != 1 {
		t.Fatalf("tmp element should not track the caller's record, got %+v", snap.Tmp)
	}

	if err := svc.SetTmpElement(ctx, nil); err != nil {
		t.Fatalf("clear tmp: %v", err)
	}
	if svc.Snapshot().Tmp != nil {
		t.Fatalf("expected tmp cleared")
	}
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	initial := svc.Snapshot()

	login := &Login{UserID: 1, Username: "ana"}
	structures := []*Structure{{ID: 10, Name: "North"}, {ID: 11, Name: "South"}}
	if err := svc.Login(ctx, LoginPayload{Login: login, Structures: structures}); err != nil {
		t.Fatalf("login: %v", err)
	}
	_ = svc.View(ctx, func(v View) error {
		if v.Login() != login || len(v.Structures()) != 2 {
			t.Fatalf("login not recorded: %+v %+v", v.Login(), v.Structures())
		}
		return nil
	})

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	after := svc.Snapshot()
	if after.Login != nil || len(after.Structures) != 0 {
		t.Fatalf("logout left session data: %+v", after)
	}
	if !reflect.DeepEqual(initial.Login, after.Login) || !reflect.DeepEqual(initial.Structures, after.Structures) {
		t.Fatalf("session fields differ from initial state")
	}
}

func TestSwitchStructureClearsScope(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	if err := svc.Login(ctx, LoginPayload{Login: &Login{UserID: 1}, Structures: []*Structure{{ID: 1}, {ID: 2, Name: "B"}}}); err != nil {
		t.Fatalf("login: %v", err)
	}
	seedElements(t, svc, ElementPatch{ID: 1}, ElementPatch{ID: 2})
	svc.Load(ctx, 1)
	_ = svc.SetTmpElement(ctx, &Element{ID: 1})

	if err := svc.SwitchStructure(ctx, 2); err != nil {
		t.Fatalf("switch: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Elements) != 0 || snap.Opened != nil || snap.Tmp != nil {
		t.Fatalf("switch should clear elements, opened and tmp: %+v", snap)
	}
	if snap.ActiveStructureID == nil || *snap.ActiveStructureID != 2 {
		t.Fatalf("active id = %v, want 2", snap.ActiveStructureID)
	}
	active, ok := svc.ActiveStructure(ctx)
	if !ok || active.Name != "B" {
		t.Fatalf("active structure = %+v, %v", active, ok)
	}

	if err := svc.SwitchStructure(ctx, 99); err != nil {
		t.Fatalf("switch to unknown id: %v", err)
	}
	if _, ok := svc.ActiveStructure(ctx); ok {
		t.Fatalf("stale active id should not resolve")
	}
}

func TestPointageSelection(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()

	_ = svc.AddPointage(ctx, &Pointage{ID: 1})
	_ = svc.AddPointage(ctx, &Pointage{ID: 2})
	_ = svc.AddPointage(ctx, &Pointage{ID: 3})
	if err := svc.RemovePointage(ctx, &Pointage{ID: 2}); err != nil {
		t.Fatalf("remove: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.PointagesSelected) != 2 || snap.PointagesSelected[0].ID != 1 || snap.PointagesSelected[1].ID != 3 {
		t.Fatalf("unexpected selection: %+v", snap.PointagesSelected)
	}

	_ = svc.ResetPointage(ctx)
	if n := len(svc.Snapshot().PointagesSelected); n != 0 {
		t.Fatalf("reset left %d entries", n)
	}
}

func TestPersonnelBatchAndRefresh(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	ana := &PersonnelDeclaration{ID: 1, FirstName: "Ana", LastName: "Diaz"}
	bo := &PersonnelDeclaration{ID: 2, FirstName: "Bo"}
	cy := &PersonnelDeclaration{ID: 3, FirstName: "Cy"}

	if err := svc.AddPersonnel(ctx, ana, bo, cy); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.RemovePersonnel(ctx, &PersonnelDeclaration{ID: 2}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.RefreshPersonnel(ctx, []PersonnelPatch{
		{ID: 1, LastName: strPtr("Ruiz")},
		{ID: 2, FirstName: strPtr("ghost")},
	}); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Personnels) != 2 {
		t.Fatalf("expected 2 personnel, got %+v", snap.Personnels)
	}
	if snap.Personnels[0].FirstName != "Ana" || snap.Personnels[0].LastName != "Ruiz" {
		t.Fatalf("refresh did not field-merge: %+v", snap.Personnels[0])
	}
	if snap.Personnels[1].ID != 3 {
		t.Fatalf("refresh must not re-add removed personnel: %+v", snap.Personnels)
	}

	_ = svc.ResetPersonnel(ctx)
	if n := len(svc.Snapshot().Personnels); n != 0 {
		t.Fatalf("reset left %d personnel", n)
	}
}

func TestRemoveIgnoresNilRecords(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	_ = svc.AddPointage(ctx, &Pointage{ID: 1})
	_ = svc.AddPersonnel(ctx, &PersonnelDeclaration{ID: 1}, &PersonnelDeclaration{ID: 2})

	var pointage *Pointage
	if err := svc.RemovePointage(ctx, pointage); err != nil {
		t.Fatalf("remove nil pointage: %v", err)
	}
	var ghost *PersonnelDeclaration
	if err := svc.RemovePersonnel(ctx, ghost, &PersonnelDeclaration{ID: 2}, nil); err != nil {
		t.Fatalf("remove personnel: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.PointagesSelected) != 1 {
		t.Fatalf("pointages = %+v", snap.PointagesSelected)
	}
	if len(snap.Personnels) != 1 || snap.Personnels[0].ID != 1 {
		t.Fatalf("personnels = %+v", snap.Personnels)
	}
}

func TestLoadOnCancelledContext(t *testing.T) {
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := svc.Load(ctx, 1)

	if !errors.Is(res.Err, context.Canceled) || res.Element != nil || res.FetchRequired {
		t.Fatalf("unexpected result: %+v", res)
	}
	if svc.Snapshot().Opened != nil {
		t.Fatalf("cancelled load opened an element")
	}
}

func TestRefreshPersonnelGtaPeriodes(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	ana := &PersonnelDeclaration{ID: 1, Periods: []*Period{{ID: 10, PersonnelID: 1, Label: "a"}}}
	_ = svc.AddPersonnel(ctx, ana)
	before := periodValues(ana)

	if err := svc.RefreshPersonnelGtaPeriodes(ctx, []PeriodPatch{
		{ID: 10, PersonnelID: 1, Label: strPtr("b")},
		{ID: 50, PersonnelID: 404, Label: strPtr("orphan")},
	}); err != nil {
		t.Fatalf("refresh periods: %v", err)
	}

	if len(ana.Periods) != len(before) || ana.Periods[0].Label != "b" {
		t.Fatalf("unexpected periods: %+v", ana.Periods)
	}
}

func periodValues(p *PersonnelDeclaration) []Period {
	out := make([]Period, 0, len(p.Periods))
	for _, period := range p.Periods {
		out = append(out, *period)
	}
	return out
}

func TestAddSemaines(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()

	if err := svc.AddSemaines(ctx, WeeksPayload{Action: WeekAddEnd, Weeks: weeks(2, 3)}); err != nil {
		t.Fatalf("addEnd: %v", err)
	}
	if err := svc.AddSemaines(ctx, WeeksPayload{Action: WeekAddStart, Weeks: weeks(0, 1)}); err != nil {
		t.Fatalf("addStart: %v", err)
	}

	var keys []int
	_ = svc.View(ctx, func(v View) error {
		for _, w := range v.Weeks() {
			keys = append(keys, w.Week)
		}
		return nil
	})
	if want := []int{1, 0, 2, 3}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("got %v want %v", keys, want)
	}
}

func TestAddSemainesRejectsOtherActions(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()
	_ = svc.AddSemaines(ctx, WeeksPayload{Action: WeekAddEnd, Weeks: weeks(1)})

	for _, action := range []WeekAction{WeekRefresh, "", "prepend"} {
		err := svc.AddSemaines(ctx, WeeksPayload{Action: action, Weeks: weeks(9)})
		if !errors.Is(err, domain.ErrInvalidAction) {
			t.Fatalf("action %q: expected ErrInvalidAction, got %v", action, err)
		}
	}
	if n := len(svc.Snapshot().Weeks); n != 1 {
		t.Fatalf("rejected commands changed weeks: %d", n)
	}
}

func TestRefreshSemaines(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()

	if err := svc.RefreshSemaines(ctx, weeks(4, 5)); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if err := svc.RefreshSemaines(ctx, []*WeekRecord{{Week: 5, WorkedMinutes: 300}, {Week: 6}}); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Weeks) != 2 || snap.Weeks[1].Week != 5 || snap.Weeks[1].WorkedMinutes != 300 {
		t.Fatalf("unexpected weeks: %+v", snap.Weeks)
	}
}

func TestSnapshotIsDeep(t *testing.T) {
	svc := NewInMemoryService()
	seedElements(t, svc, ElementPatch{ID: 1, Fields: map[string]any{"k": "v"}})

	snap := svc.Snapshot()
	snap.Elements[0].Fields["k"] = "changed"

	if heldElements(t, svc)[0].Fields["k"] != "v" {
		t.Fatalf("snapshot shares maps with the store")
	}
}
