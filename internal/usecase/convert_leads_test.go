package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var (
	march    = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	marchClk = clock.Func(func() time.Time { return march })
	marchKey = entity.Month("2024-03")
	beta     = &entity.Client{ID: "beta-id", Name: "Beta"}
)

func reasonsOf(r *usecase.ConversionReport) map[string]usecase.SkipReason {
	out := map[string]usecase.SkipReason{}
	for _, o := range r.Outcomes {
		if !o.Converted {
			out[o.LeadID] = o.Reason
		}
	}
	return out
}

func leadAllocation(clientID string, total, used int) *entity.MonthlyAllocation {
	return &entity.MonthlyAllocation{
		ID:       "alloc-" + clientID,
		ClientID: clientID,
		Month:    marchKey,
		Leads:    entity.CreditPool{Base: total, Total: total, Used: used},
	}
}

func TestConvertLeads_CreatesSnapshotAndBumpsCounters(t *testing.T) {
	store := seededStore()
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, nil, nil, marchClk, nil)

	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-new"}})

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.ConvertedCount)
	require.Len(t, report.ConvertedContacts, 1)

	contact := report.ConvertedContacts[0]
	assert.Equal(t, acmeID, contact.ClientID)
	assert.Equal(t, "Soft", contact.CompanyName)
	assert.Equal(t, march, contact.ConvertedAt)

	lead, _ := store.FindByID(context.Background(), "l-new")
	assert.Equal(t, 1, lead.TotalTimesContacted)
	require.NotNil(t, lead.LastGlobalContactAt)
	assert.Equal(t, march, *lead.LastGlobalContactAt)
	assert.Equal(t, 1, lead.Version)
}

func TestConvertLeads_SecondConversionIsRefused(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	first, err := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, nil, nil, marchClk, nil).
		Execute(ctx, usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-old"}})
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := usecase.NewConvertLeadsUseCase(resolverFor(beta), store, nil, nil, marchClk, nil).
		Execute(ctx, usecase.ConvertLeadsInput{ClientIdentifier: "beta", LeadIDs: []string{"l-old"}})
	require.NoError(t, err)

	assert.False(t, second.Success)
	assert.Zero(t, second.ConvertedCount)
	assert.Equal(t, usecase.SkipAlreadyConverted, reasonsOf(second)["l-old"])
}

func TestConvertLeads_ConcurrentCallsConvertOnce(t *testing.T) {
	store := seededStore()
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		converted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, nil, nil, marchClk, nil)
			report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-bank"}})
			if err == nil {
				mu.Lock()
				converted += report.ConvertedCount
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, converted)
}

func TestConvertLeads_MixedBatchKeepsGoing(t *testing.T) {
	store := seededStore()
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, nil, nil, marchClk, nil)

	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{
		ClientIdentifier: "acme.io",
		LeadIDs:          []string{"missing", "l-thin", "l-new", "l-orphan", "l-old"},
	})

	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, 2, report.ConvertedCount)
	assert.Equal(t, 3, report.SkippedCount)
	assert.Len(t, report.Errors, 3)
	assert.Equal(t, map[string]usecase.SkipReason{
		"missing":  usecase.SkipLeadNotFound,
		"l-thin":   usecase.SkipCompanyNotEnriched,
		"l-orphan": usecase.SkipCompanyNotEnriched,
	}, reasonsOf(report))

	require.Len(t, report.Outcomes, 5)
	assert.Equal(t, "missing", report.Outcomes[0].LeadID)
	assert.True(t, report.Outcomes[2].Converted)
	assert.NotEmpty(t, report.Outcomes[2].ContactID)
}

func TestConvertLeads_TechnicalFailureIsReportedPerLead(t *testing.T) {
	leads := new(MockLeadRepository)
	leads.On("Convert", mock.Anything, acmeID, "l-1", march).Return(nil, errors.New("deadlock detected"))
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), leads, nil, nil, marchClk, nil)

	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-1"}})

	require.NoError(t, err)
	assert.Equal(t, usecase.SkipConversionFailed, reasonsOf(report)["l-1"])
	assert.Contains(t, report.Errors[0], "deadlock detected")
}

func TestConvertLeads_Validation(t *testing.T) {
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), newLeadStore(), nil, nil, marchClk, nil)

	tooMany := make([]string, usecase.MaxLeadsPerConversion+1)
	for i := range tooMany {
		tooMany[i] = "l"
	}

	for name, input := range map[string]usecase.ConvertLeadsInput{
		"no ids":    {ClientIdentifier: "acme.io"},
		"blank id":  {ClientIdentifier: "acme.io", LeadIDs: []string{"l-1", " "}},
		"too many":  {ClientIdentifier: "acme.io", LeadIDs: tooMany},
		"no client": {LeadIDs: []string{"l-1"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), input)
			assert.True(t, usecase.IsDomainError(err))
		})
	}
}

// ============ CREDIT CHARGING ============

func TestConvertLeads_ChargesOneLeadCreditPerConversion(t *testing.T) {
	store := seededStore()
	ledgerRows := newLedgerStore(leadAllocation(acmeID, 10, 0))
	ledger := usecase.NewCreditLedgerUseCase(resolverFor(acme), ledgerRows, marchClk, nil)
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, ledger, nil, marchClk, nil)

	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-new", "l-old"}})

	require.NoError(t, err)
	assert.Equal(t, 2, report.ConvertedCount)
	assert.Equal(t, 2, ledgerRows.pool(acmeID, marchKey, entity.CreditLeads).Used)
}

func TestConvertLeads_RefundsWhenConversionIsRefused(t *testing.T) {
	store := seededStore()
	ledgerRows := newLedgerStore(leadAllocation(acmeID, 10, 0))
	ledger := usecase.NewCreditLedgerUseCase(resolverFor(acme), ledgerRows, marchClk, nil)
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, ledger, nil, marchClk, nil)

	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-thin", "missing"}})

	require.NoError(t, err)
	assert.Equal(t, 2, report.SkippedCount)
	assert.Zero(t, ledgerRows.pool(acmeID, marchKey, entity.CreditLeads).Used)
}

func TestConvertLeads_StopsChargingWhenCreditsRunOut(t *testing.T) {
	store := seededStore()
	ledgerRows := newLedgerStore(leadAllocation(acmeID, 1, 0))
	ledger := usecase.NewCreditLedgerUseCase(resolverFor(acme), ledgerRows, marchClk, nil)
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, ledger, nil, marchClk, nil)

	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-new", "l-old"}})

	require.NoError(t, err)
	assert.Equal(t, 1, report.ConvertedCount)
	assert.Equal(t, usecase.SkipInsufficientCredits, reasonsOf(report)["l-old"])
	assert.Contains(t, report.Errors[0], "remaining 0, requested 1")
	assert.Equal(t, 1, ledgerRows.pool(acmeID, marchKey, entity.CreditLeads).Used)

	lead, _ := store.FindByID(context.Background(), "l-old")
	assert.Zero(t, lead.TotalTimesContacted)
}

func TestConvertLeads_NoAllocationSkipsEveryLead(t *testing.T) {
	store := seededStore()
	ledger := usecase.NewCreditLedgerUseCase(resolverFor(acme), newLedgerStore(), marchClk, nil)
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, ledger, nil, marchClk, nil)

	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-new"}})

	require.NoError(t, err)
	assert.Equal(t, usecase.SkipAllocationNotFound, reasonsOf(report)["l-new"])
}

// ============ EVENTS ============

func TestConvertLeads_PublishesOneEventPerBatch(t *testing.T) {
	store := seededStore()
	pub := new(MockPublisher)
	pub.On("PublishConversion", mock.Anything, mock.MatchedBy(func(e queue.ConversionEvent) bool {
		return e.ClientID == acmeID &&
			e.ClientEmail == "ops@acme.io" &&
			e.ConvertedCount == 1 &&
			e.SkippedCount == 1 &&
			len(e.Contacts) == 1 &&
			e.Contacts[0].LeadID == "l-new" &&
			e.EventID != ""
	})).Return(nil).Once()

	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, nil, pub, marchClk, nil)
	_, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-new", "missing"}})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestConvertLeads_PublishFailureDoesNotUndoConversion(t *testing.T) {
	store := seededStore()
	pub := new(MockPublisher)
	pub.On("PublishConversion", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), store, nil, pub, marchClk, nil)
	report, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"l-new"}})

	require.NoError(t, err)
	assert.True(t, report.Success)
	ids, _ := store.ConvertedLeadIDs(context.Background())
	assert.Contains(t, ids, "l-new")
}

func TestConvertLeads_NothingConvertedPublishesNothing(t *testing.T) {
	pub := new(MockPublisher)
	uc := usecase.NewConvertLeadsUseCase(resolverFor(acme), seededStore(), nil, pub, marchClk, nil)

	_, err := uc.Execute(context.Background(), usecase.ConvertLeadsInput{ClientIdentifier: "acme.io", LeadIDs: []string{"missing"}})

	require.NoError(t, err)
	pub.AssertNotCalled(t, "PublishConversion", mock.Anything, mock.Anything)
}
