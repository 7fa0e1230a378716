package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// leadStore is an in-memory lead and company store with the same conversion
// semantics as the postgres repository: one lock around check and insert.
type leadStore struct {
	mu        sync.Mutex
	leads     map[string]*entity.Lead
	companies map[string]*entity.Company
	contacts  []*entity.Contact
}

func newLeadStore() *leadStore {
	return &leadStore{
		leads:     map[string]*entity.Lead{},
		companies: map[string]*entity.Company{},
	}
}

func (s *leadStore) addCompany(c *entity.Company) { s.companies[c.ID] = c }
func (s *leadStore) addLead(l *entity.Lead) { s.leads[l.ID] = l }

func (s *leadStore) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *leadStore) ListActive(_ context.Context, limit int) ([]*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Lead
	for _, l := range s.leads {
		if l.IsActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	entity.SortLeadsByPriority(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *leadStore) ConvertedLeadIDs(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := map[string]struct{}{}
	for _, c := range s.contacts {
		ids[c.LeadID] = struct{}{}
	}
	return ids, nil
}

func (s *leadStore) Convert(_ context.Context, clientID, leadID string, now time.Time) (*entity.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[leadID]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	for _, c := range s.contacts {
		if c.LeadID == leadID {
			return nil, entity.ErrAlreadyConverted
		}
	}
	company, ok := s.companies[l.CompanyID]
	if !ok || !company.FullEnrichment {
		return nil, entity.ErrCompanyNotEnriched
	}

	contact := entity.NewContactSnapshot(clientID, l, company, now)
	s.contacts = append(s.contacts, contact)
	l.TotalTimesContacted++
	l.LastGlobalContactAt = &now
	l.Version++
	return contact, nil
}

func (s *leadStore) FindByIDs(_ context.Context, ids []string) (map[string]*entity.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]*entity.Company{}
	for _, id := range ids {
		if c, ok := s.companies[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// ledgerStore is an in-memory allocation table keyed by client and month.
type ledgerStore struct {
	mu   sync.Mutex
	rows map[string]*entity.MonthlyAllocation
}

func newLedgerStore(rows ...*entity.MonthlyAllocation) *ledgerStore {
	s := &ledgerStore{rows: map[string]*entity.MonthlyAllocation{}}
	for _, r := range rows {
		s.rows[r.ClientID+"|"+string(r.Month)] = r
	}
	return s
}

func (s *ledgerStore) Create(_ context.Context, a *entity.MonthlyAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := a.ClientID + "|" + string(a.Month)
	if _, ok := s.rows[key]; ok {
		return entity.ErrAllocationAlreadyExists
	}
	cp := *a
	s.rows[key] = &cp
	return nil
}

func (s *ledgerStore) FindByClientAndMonth(_ context.Context, clientID string, month entity.Month) (*entity.MonthlyAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[clientID+"|"+string(month)]
	if !ok {
		return nil, entity.ErrAllocationNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *ledgerStore) Debit(_ context.Context, clientID string, month entity.Month, ct entity.CreditType, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[clientID+"|"+string(month)]
	if !ok {
		return 0, entity.ErrAllocationNotFound
	}
	p := a.Pool(ct)
	if p.Remaining() < amount {
		return 0, &entity.InsufficientCreditsError{CreditType: ct, Remaining: p.Remaining(), Requested: amount}
	}
	p.Used += amount
	return p.Remaining(), nil
}

func (s *ledgerStore) Refund(_ context.Context, clientID string, month entity.Month, ct entity.CreditType, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[clientID+"|"+string(month)]
	if !ok {
		return 0, entity.ErrAllocationNotFound
	}
	p := a.Pool(ct)
	p.Used = max(0, p.Used-amount)
	return p.Remaining(), nil
}

func (s *ledgerStore) pool(clientID string, month entity.Month, ct entity.CreditType) entity.CreditPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rows[clientID+"|"+string(month)].Pool(ct)
}
