package core

import (
	"context"

	"github.com/go-playground/validator/v10"

	"gtasync/internal/logging"
	"gtasync/pkg/domain"
)

const (
	elementActionRule = "oneof=update replace remove"
	weekAddActionRule = "required,oneof=addStart addEnd"
)

// Service is the only entry point that mutates a Store. Every command is
// applied synchronously under the store lock, then announced to subscribers.
type Service struct {
	store    *Store
	validate *validator.Validate
	subs     subscriptions

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
	newID   func() string
}

// NewService constructs a service backed by the supplied store.
func NewService(store *Store, opts ...ServiceOption) *Service {
	if store == nil {
		store = NewStore()
	}
	o := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   o.logger,
		metrics:  o.metrics,
		tracer:   o.tracer,
		clock:    o.clock,
		newID:    o.newID,
	}
}

// NewInMemoryService creates a service over a fresh, empty store.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(NewStore(), opts...)
}

// Store returns the underlying state container.
func (s *Service) Store() *Store {
	return s.store
}

// View executes fn against a read-only view of the held state.
func (s *Service) View(ctx context.Context, fn func(View) error) error {
	return s.store.View(ctx, fn)
}

// Snapshot returns a deep copy of the held state.
func (s *Service) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// ActiveStructure resolves the active structure id among the held structures.
func (s *Service) ActiveStructure(ctx context.Context) (Structure, bool) {
	var (
		out   Structure
		found bool
	)
	_ = s.store.View(ctx, func(v View) error {
		if active, ok := v.ActiveStructure(); ok {
			out, found = domain.CloneStructure(*active), true
		}
		return nil
	})
	return out, found
}

// Subscribe registers fn to be told about every applied command. The
// returned function unregisters it.
func (s *Service) Subscribe(fn Subscriber) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return s.subs.add(fn)
}

// LoadResult is the outcome of Load. FetchRequired is set when the element
// is not held: the caller should fetch it and load again. Err is set when
// the command was rejected before it reached the state.
type LoadResult struct {
	Element       *Element `json:"element,omitempty"`
	FetchRequired bool     `json:"fetch_required"`
	Err           error    `json:"-"`
}

// Load opens the held element carrying id. A miss changes nothing and is
// reported through FetchRequired.
func (s *Service) Load(ctx context.Context, id int64) LoadResult {
	var result LoadResult
	err := s.run(ctx, "load", id, func(st *State) (mutation, error) {
		el, ok := st.findElement(id)
		if !ok {
			result.FetchRequired = true
			return mutation{entity: EntityElement, ids: []int64{id}, noop: true}, nil
		}
		st.open(el)
		result.Element = el
		return mutation{entity: EntityElement, ids: []int64{id}}, nil
	})
	if err != nil {
		return LoadResult{Err: err}
	}
	if result.FetchRequired {
		s.loggerFor(ctx).Info("element not held, fetch required", "operation", "load", "element_id", id)
	}
	return result
}

// Unload closes the open element.
func (s *Service) Unload(ctx context.Context) error {
	return s.run(ctx, "unload", nil, func(st *State) (mutation, error) {
		st.close()
		return mutation{entity: EntityElement}, nil
	})
}

// Open points the detail view at e without looking it up.
func (s *Service) Open(ctx context.Context, e *Element) error {
	return s.run(ctx, "open", e, func(st *State) (mutation, error) {
		st.open(e)
		var ids []int64
		if e != nil {
			ids = []int64{e.ID}
		}
		return mutation{entity: EntityElement, ids: ids}, nil
	})
}

// RefreshElements reconciles the loaded elements with payload according to
// its action: update (the default) upserts, replace swaps the whole
// collection, remove deletes by id. Any other action is rejected before the
// collection is touched.
func (s *Service) RefreshElements(ctx context.Context, payload ElementsPayload) error {
	return s.run(ctx, "refreshElements", payload, func(st *State) (mutation, error) {
		action := payload.Action
		if action == "" {
			action = ElementUpdate
		}
		if err := s.validateAction("refreshElements", string(action), elementActionRule); err != nil {
			return mutation{}, err
		}
		switch action {
		case ElementReplace:
			records := make([]*Element, 0, len(payload.Elements))
			for _, patch := range payload.Elements {
				records = append(records, patch.Materialize())
			}
			st.replaceElements(records)
			return mutation{entity: EntityElement, ids: recordIDs(payload.Elements)}, nil
		case ElementRemove:
			st.removeElements(payload.IDs)
			return mutation{entity: EntityElement, ids: payload.IDs}, nil
		default:
			st.upsertElements(payload.Elements)
			return mutation{entity: EntityElement, ids: recordIDs(payload.Elements)}, nil
		}
	})
}

// RefreshOpened merges patch into the open element. With nothing open the
// command does nothing. The patch id is ignored.
func (s *Service) RefreshOpened(ctx context.Context, patch ElementPatch) error {
	return s.run(ctx, "refreshOpened", patch, func(st *State) (mutation, error) {
		if !st.updateOpened(patch) {
			s.loggerFor(ctx).Debug("no element open, patch ignored", "operation", "refreshOpened")
			return mutation{entity: EntityElement, noop: true}, nil
		}
		return mutation{entity: EntityElement, ids: []int64{st.opened.ID}}, nil
	})
}

// SetTmpElement stores a detached copy of e as the temporary duplicate of the
// opened element. A nil e clears it.
func (s *Service) SetTmpElement(ctx context.Context, e *Element) error {
	return s.run(ctx, "tmpElement", e, func(st *State) (mutation, error) {
		if e == nil {
			st.setTmp(nil)
			return mutation{entity: EntityElement}, nil
		}
		dup := domain.CloneElement(*e)
		st.setTmp(&dup)
		return mutation{entity: EntityElement, ids: []int64{e.ID}}, nil
	})
}

// Login records the session login together with the structures it can see.
func (s *Service) Login(ctx context.Context, payload LoginPayload) error {
	return s.run(ctx, "login", payload, func(st *State) (mutation, error) {
		st.setLogin(payload.Login)
		st.setStructures(payload.Structures)
		return mutation{entity: EntitySession, ids: recordIDs(payload.Structures)}, nil
	})
}

// Logout clears the login and the structures it could see.
func (s *Service) Logout(ctx context.Context) error {
	return s.run(ctx, "logout", nil, func(st *State) (mutation, error) {
		st.setLogin(nil)
		st.setStructures(nil)
		return mutation{entity: EntitySession}, nil
	})
}

// SwitchStructure closes the open element, clears the temporary copy, drops
// the loaded elements and activates structureID. The id is not checked
// against the held structures.
func (s *Service) SwitchStructure(ctx context.Context, structureID int64) error {
	return s.run(ctx, "switchStructure", structureID, func(st *State) (mutation, error) {
		st.switchStructure(structureID)
		return mutation{entity: EntityStructure, ids: []int64{structureID}}, nil
	})
}

// AddPointage appends p to the selected time entries. Selecting the same
// entry twice keeps two members.
func (s *Service) AddPointage(ctx context.Context, p *Pointage) error {
	return s.run(ctx, "addPointage", p, func(st *State) (mutation, error) {
		if p == nil {
			return mutation{entity: EntityPointage, noop: true}, nil
		}
		st.pointages.Add(p)
		return mutation{entity: EntityPointage, ids: []int64{p.ID}}, nil
	})
}

// RemovePointage unselects the first entry carrying p's id.
func (s *Service) RemovePointage(ctx context.Context, p *Pointage) error {
	return s.run(ctx, "removePointage", p, func(st *State) (mutation, error) {
		if p == nil {
			return mutation{entity: EntityPointage, noop: true}, nil
		}
		st.pointages.Remove(p.RecordID())
		return mutation{entity: EntityPointage, ids: []int64{p.RecordID()}}, nil
	})
}

// ResetPointage empties the selected time entries.
func (s *Service) ResetPointage(ctx context.Context) error {
	return s.run(ctx, "resetPointage", nil, func(st *State) (mutation, error) {
		st.pointages.Reset()
		return mutation{entity: EntityPointage}, nil
	})
}

// AddPersonnel appends one or more declarations to the selected personnel.
func (s *Service) AddPersonnel(ctx context.Context, records ...*PersonnelDeclaration) error {
	return s.run(ctx, "addPersonnel", records, func(st *State) (mutation, error) {
		st.personnels.Add(records...)
		return mutation{entity: EntityPersonnel, ids: nonNilIDs(records)}, nil
	})
}

// RemovePersonnel unselects the declarations carrying the given ids.
func (s *Service) RemovePersonnel(ctx context.Context, records ...*PersonnelDeclaration) error {
	return s.run(ctx, "removePersonnel", records, func(st *State) (mutation, error) {
		ids := nonNilIDs(records)
		st.personnels.Remove(ids...)
		return mutation{entity: EntityPersonnel, ids: ids}, nil
	})
}

// ResetPersonnel empties the selected personnel.
func (s *Service) ResetPersonnel(ctx context.Context) error {
	return s.run(ctx, "resetPersonnel", nil, func(st *State) (mutation, error) {
		st.personnels.Reset()
		return mutation{entity: EntityPersonnel}, nil
	})
}

// RefreshPersonnel merges patches into the already selected declarations.
// Patches for declarations that are not selected are ignored.
func (s *Service) RefreshPersonnel(ctx context.Context, patches []PersonnelPatch) error {
	return s.run(ctx, "refreshPersonnel", patches, func(st *State) (mutation, error) {
		refreshExisting(st.personnels.live(), patches)
		return mutation{entity: EntityPersonnel, ids: recordIDs(patches)}, nil
	})
}

// RefreshPersonnelGtaPeriodes upserts periods into the nested sequence of the
// declaration each one references. Periods without a selected owner are
// dropped.
func (s *Service) RefreshPersonnelGtaPeriodes(ctx context.Context, periods []PeriodPatch) error {
	return s.run(ctx, "refreshPersonnelGtaPeriodes", periods, func(st *State) (mutation, error) {
		if dropped := patchPeriods(st.personnels.live(), periods); dropped > 0 {
			s.loggerFor(ctx).Debug("periods dropped, owner not selected",
				"operation", "refreshPersonnelGtaPeriodes", "dropped", dropped)
		}
		return mutation{entity: EntityPeriod, ids: recordIDs(periods)}, nil
	})
}

// AddSemaines prepends (addStart) or appends (addEnd) weekly records. Any
// other action is rejected before the sequence is touched.
func (s *Service) AddSemaines(ctx context.Context, payload WeeksPayload) error {
	return s.run(ctx, "addSemaines", payload, func(st *State) (mutation, error) {
		if err := s.validateAction("addSemaines", string(payload.Action), weekAddActionRule); err != nil {
			return mutation{}, err
		}
		if payload.Action == WeekAddStart {
			st.weeks.AddStart(payload.Weeks...)
		} else {
			st.weeks.AddEnd(payload.Weeks...)
		}
		return mutation{entity: EntityWeek}, nil
	})
}

// RefreshSemaines replaces held weekly records by week number, in place. An
// empty sequence adopts weeks wholesale.
func (s *Service) RefreshSemaines(ctx context.Context, weeks []*WeekRecord) error {
	return s.run(ctx, "refreshSemaines", weeks, func(st *State) (mutation, error) {
		st.weeks.Refresh(weeks...)
		return mutation{entity: EntityWeek}, nil
	})
}

func (s *Service) validateAction(command, action, rule string) error {
	if err := s.validate.Var(action, rule); err != nil {
		return &domain.InvalidActionError{Command: command, Action: action}
	}
	return nil
}

func (s *Service) loggerFor(ctx context.Context) Logger {
	if l := logging.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

func nonNilIDs[T Identified](records []*T) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		if r != nil {
			ids = append(ids, (*r).RecordID())
		}
	}
	return ids
}
