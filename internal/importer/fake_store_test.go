package importer

import (
	"context"
	"sort"

	"github.com/gestion2026/ledger/internal/ledger"
)

// fakeStore is an in-memory ledger.Store for engine tests. It snapshots its
// state around RunInTransaction so a failing transaction rolls back like the
// real store.
type fakeStore struct {
	nextID    int64
	projects  map[string]*ledger.Project
	realized  []ledger.RealizedExpense
	committed []ledger.CommittedExpense

	upsertErr error
	insertErr error

	// batch sizes of every bulk insert, in call order
	realizedBatches  []int
	committedBatches []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: make(map[string]*ledger.Project)}
}

func (f *fakeStore) addProject(code, name string) *ledger.Project {
	f.nextID++
	p := &ledger.Project{ID: f.nextID, LcpCode: code, Name: name, Status: ledger.StatusAbierto}
	f.projects[code] = p
	return p
}

func (f *fakeStore) FindProjectsByCodes(ctx context.Context, codes []string) ([]ledger.ProjectRef, error) {
	var refs []ledger.ProjectRef
	for _, code := range codes {
		if p, ok := f.projects[code]; ok {
			refs = append(refs, ledger.ProjectRef{ID: p.ID, LcpCode: p.LcpCode})
		}
	}
	return refs, nil
}

func (f *fakeStore) UpsertProject(ctx context.Context, up ledger.ProjectUpsert) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	p, ok := f.projects[up.LcpCode]
	if !ok {
		p = f.addProject(up.LcpCode, up.Name)
	}
	p.Name = up.Name
	p.CapTotal = up.CapTotal
	p.ExpTotal = up.ExpTotal
	return nil
}

func (f *fakeStore) FindRealizedExpenses(ctx context.Context, projectIDs []int64) ([]ledger.RealizedExpense, error) {
	ids := make(map[int64]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		ids[id] = struct{}{}
	}
	var out []ledger.RealizedExpense
	for _, e := range f.realized {
		if _, ok := ids[e.ProjectID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindCommittedExpenses(ctx context.Context, projectIDs []int64) ([]ledger.CommittedExpense, error) {
	ids := make(map[int64]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		ids[id] = struct{}{}
	}
	var out []ledger.CommittedExpense
	for _, e := range f.committed {
		if _, ok := ids[e.ProjectID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertRealizedExpenses(ctx context.Context, rows []ledger.RealizedExpense) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.realizedBatches = append(f.realizedBatches, len(rows))
	f.realized = append(f.realized, rows...)
	return nil
}

func (f *fakeStore) InsertCommittedExpenses(ctx context.Context, rows []ledger.CommittedExpense) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.committedBatches = append(f.committedBatches, len(rows))
	f.committed = append(f.committed, rows...)
	return nil
}

func (f *fakeStore) RunInTransaction(ctx context.Context, fn func(ledger.Store) error) error {
	snapshot := make(map[string]ledger.Project, len(f.projects))
	for code, p := range f.projects {
		snapshot[code] = *p
	}
	savedID := f.nextID

	if err := fn(f); err != nil {
		f.projects = make(map[string]*ledger.Project, len(snapshot))
		for code := range snapshot {
			p := snapshot[code]
			f.projects[code] = &p
		}
		f.nextID = savedID
		return err
	}
	return nil
}

func (f *fakeStore) ListProjects(ctx context.Context) ([]ledger.Project, error) {
	codes := make([]string, 0, len(f.projects))
	for code := range f.projects {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]ledger.Project, 0, len(codes))
	for _, code := range codes {
		out = append(out, *f.projects[code])
	}
	return out, nil
}

func (f *fakeStore) GetProjectByCode(ctx context.Context, lcpCode string) (*ledger.Project, error) {
	p, ok := f.projects[lcpCode]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProjectRealized(ctx context.Context, lcpCode string) (*ledger.Project, []ledger.RealizedExpense, error) {
	p, err := f.GetProjectByCode(ctx, lcpCode)
	if err != nil {
		return nil, nil, err
	}
	rows, _ := f.FindRealizedExpenses(ctx, []int64{p.ID})
	return p, rows, nil
}

func (f *fakeStore) GetProjectCommitted(ctx context.Context, lcpCode string) (*ledger.Project, []ledger.CommittedExpense, error) {
	p, err := f.GetProjectByCode(ctx, lcpCode)
	if err != nil {
		return nil, nil, err
	}
	rows, _ := f.FindCommittedExpenses(ctx, []int64{p.ID})
	return p, rows, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*ledger.Stats, error) {
	s := &ledger.Stats{Projects: len(f.projects), ByStatus: make(map[string]int)}
	for _, p := range f.projects {
		s.CapTotal = s.CapTotal.Add(p.CapTotal)
		s.ExpTotal = s.ExpTotal.Add(p.ExpTotal)
		s.ByStatus[string(p.Status)]++
	}
	for _, e := range f.realized {
		s.RealizedTotal = s.RealizedTotal.Add(e.Amount)
	}
	for _, e := range f.committed {
		s.CommittedTotal = s.CommittedTotal.Add(e.Amount)
	}
	return s, nil
}

func (f *fakeStore) UpdateProjectStatus(ctx context.Context, id int64, status ledger.ProjectStatus) (*ledger.Project, error) {
	for _, p := range f.projects {
		if p.ID == id {
			p.Status = status
			cp := *p
			return &cp, nil
		}
	}
	return nil, ledger.ErrNotFound
}

var _ ledger.Store = (*fakeStore)(nil)
