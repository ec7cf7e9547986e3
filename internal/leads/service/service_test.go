package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadbook_backend/internal/events"
	"leadbook_backend/internal/leads/policy"
	"leadbook_backend/internal/leads/repository"
	"leadbook_backend/internal/leads/transport"
	"leadbook_backend/platform/apperr"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/validator"
)

// fakeRepo mimics the store semantics in memory: assignment clears the fresh
// flag without a history row, status updates append history and stamp
// last_contacted_at on "contacted".
type fakeRepo struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]repository.Lead
	history map[uuid.UUID][]repository.StatusHistoryEntry
	comment map[uuid.UUID][]repository.Comment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:   make(map[uuid.UUID]repository.Lead),
		history: make(map[uuid.UUID][]repository.StatusHistoryEntry),
		comment: make(map[uuid.UUID][]repository.Comment),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead := repository.Lead{
		ID:        uuid.New(),
		Name:      params.Name,
		Phone:     params.Phone,
		Email:     params.Email,
		Location:  params.Location,
		Services:  params.Services,
		Source:    params.Source,
		Status:    "new",
		IsFresh:   true,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok || !lead.IsActive {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) GetActiveUnconvertedByPhone(_ context.Context, phoneNumber string) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var oldest *repository.Lead
	for id := range f.leads {
		lead := f.leads[id]
		if lead.Phone != phoneNumber || !lead.IsActive || lead.Status == "converted" {
			continue
		}
		if oldest == nil || lead.CreatedAt.Before(oldest.CreatedAt) {
			copied := lead
			oldest = &copied
		}
	}
	if oldest == nil {
		return repository.Lead{}, repository.ErrNotFound
	}
	return *oldest, nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.ListParams) ([]repository.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	leads := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if lead.IsActive {
			leads = append(leads, lead)
		}
	}
	return leads, len(leads), nil
}

func (f *fakeRepo) ListActive(ctx context.Context) ([]repository.Lead, error) {
	leads, _, err := f.List(ctx, repository.ListParams{})
	return leads, err
}

func (f *fakeRepo) Assign(_ context.Context, params repository.AssignLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[params.LeadID]
	if !ok || !lead.IsActive {
		return repository.Lead{}, repository.ErrNotFound
	}

	now := time.Now()
	lead.AssignedToUserID = &params.AssignedToUserID
	lead.AssignedToTier = &params.AssignedToTier
	lead.AssignedByUserID = &params.AssignedByUserID
	lead.AssignedAt = &now
	lead.IsFresh = false
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, params repository.UpdateStatusParams) (repository.Lead, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[params.LeadID]
	if !ok || !lead.IsActive {
		return repository.Lead{}, "", repository.ErrNotFound
	}

	oldStatus := lead.Status
	lead.Status = params.Status
	if params.Status == "contacted" {
		now := time.Now()
		lead.LastContactedAt = &now
	}
	f.leads[lead.ID] = lead

	f.history[lead.ID] = append(f.history[lead.ID], repository.StatusHistoryEntry{
		ID:              uuid.New(),
		LeadID:          lead.ID,
		OldStatus:       &oldStatus,
		NewStatus:       params.Status,
		Notes:           params.Notes,
		ChangedByUserID: params.ChangedByUserID,
		CreatedAt:       time.Now(),
	})

	return lead, oldStatus, nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lead, ok := f.leads[id]
	if !ok || !lead.IsActive {
		return repository.ErrNotFound
	}
	lead.IsActive = false
	f.leads[id] = lead
	return nil
}

func (f *fakeRepo) AddComment(_ context.Context, params repository.AddCommentParams) (repository.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	comment := repository.Comment{
		ID:        uuid.New(),
		LeadID:    params.LeadID,
		UserID:    params.UserID,
		UserName:  "Test User",
		Comment:   params.Comment,
		CreatedAt: time.Now(),
	}
	f.comment[params.LeadID] = append(f.comment[params.LeadID], comment)
	return comment, nil
}

func (f *fakeRepo) ListComments(_ context.Context, leadID uuid.UUID) ([]repository.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comment[leadID], nil
}

func (f *fakeRepo) ListHistory(_ context.Context, leadID uuid.UUID) ([]repository.StatusHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[leadID], nil
}

type fakeDirectory struct {
	users map[uuid.UUID]Assignee
}

func (f *fakeDirectory) Assignee(_ context.Context, id uuid.UUID) (Assignee, error) {
	assignee, ok := f.users[id]
	if !ok {
		return Assignee{}, ErrAssigneeNotFound
	}
	return assignee, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.events))
	for _, event := range b.events {
		names = append(names, event.EventName())
	}
	return names
}

type testConfig struct{}

func (testConfig) GetTxTimeout() time.Duration { return 5 * time.Second }

func newTestService(repo *fakeRepo, dir *fakeDirectory) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := NewService(repo, dir, bus, validator.New(), logger.New("test"), testConfig{})
	return svc, bus
}

func mustCreate(t *testing.T, svc *Service, phoneNumber string) transport.LeadResponse {
	t.Helper()
	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Ravi Kumar",
		Phone:  phoneNumber,
		Source: transport.LeadSourceManual,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return lead
}

func TestCreateNormalizesAndDetectsDuplicates(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{users: map[uuid.UUID]Assignee{}}
	svc, _ := newTestService(repo, dir)

	first := mustCreate(t, svc, "+91 98765 43210")
	if first.Phone != "+919876543210" {
		t.Fatalf("phone not normalized: %q", first.Phone)
	}
	if first.Status != "new" || !first.IsFresh {
		t.Fatalf("new lead should be fresh with status new, got %q fresh=%v", first.Status, first.IsFresh)
	}

	// Same number in a different format must collide.
	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Ravi K",
		Phone:  "9876543210",
		Source: transport.LeadSourceMeta,
	})
	if apperr.GetKind(err) != apperr.KindDuplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCreateDuplicateCarriesExistingLead(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeDirectory{})

	first := mustCreate(t, svc, "+919876543210")

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Second",
		Phone:  "+919876543210",
		Source: transport.LeadSourceManual,
	})

	appErr, ok := err.(*apperr.Error)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	details, ok := appErr.Details.(transport.DuplicateLeadDetails)
	if !ok {
		t.Fatalf("expected duplicate details, got %T", appErr.Details)
	}
	if details.ID != first.ID {
		t.Errorf("details.ID = %s, want %s", details.ID, first.ID)
	}
}

func TestCreateAllowsReusedPhoneAfterConversion(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeDirectory{})

	first := mustCreate(t, svc, "+919876543210")

	repo.mu.Lock()
	lead := repo.leads[first.ID]
	lead.Status = "converted"
	repo.leads[first.ID] = lead
	repo.mu.Unlock()

	if _, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Returning Customer",
		Phone:  "+919876543210",
		Source: transport.LeadSourceManual,
	}); err != nil {
		t.Fatalf("converted lead should free the phone number: %v", err)
	}
}

func TestAssignClearsFreshWithoutHistory(t *testing.T) {
	repo := newFakeRepo()
	repID := uuid.New()
	dir := &fakeDirectory{users: map[uuid.UUID]Assignee{
		repID: {ID: repID, Name: "Sales Rep", Tier: 4, IsActive: true},
	}}
	svc, bus := newTestService(repo, dir)

	lead := mustCreate(t, svc, "+919876543210")
	admin := policy.Actor{ID: uuid.New(), Tier: policy.TierAdmin}

	assigned, err := svc.Assign(context.Background(), admin, lead.ID, transport.AssignLeadRequest{
		AssignedToUserID: repID,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if assigned.IsFresh {
		t.Error("assignment must clear the fresh flag")
	}
	if assigned.AssignedToTier == nil || *assigned.AssignedToTier != 4 {
		t.Error("assignee tier must be snapshotted on the lead")
	}

	history, _ := repo.ListHistory(context.Background(), lead.ID)
	if len(history) != 0 {
		t.Errorf("assignment must not write history rows, got %d", len(history))
	}

	found := false
	for _, name := range bus.names() {
		if name == "leads.assigned" {
			found = true
		}
	}
	if !found {
		t.Error("expected leads.assigned event")
	}
}

func TestAssignPermissions(t *testing.T) {
	repID := uuid.New()
	dir := &fakeDirectory{users: map[uuid.UUID]Assignee{
		repID: {ID: repID, Name: "Rep", Tier: 4, IsActive: true},
	}}

	tests := []struct {
		name     string
		tier     policy.Tier
		wantKind apperr.Kind
	}{
		{"admin can assign", policy.TierAdmin, 0},
		{"area manager can assign", policy.TierAreaManager, 0},
		{"store manager cannot assign", policy.TierStoreManager, apperr.KindForbidden},
		{"sales rep cannot assign", policy.TierSalesRep, apperr.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc, _ := newTestService(repo, dir)
			lead := mustCreate(t, svc, "+919876543210")

			actor := policy.Actor{ID: uuid.New(), Tier: tt.tier}
			_, err := svc.Assign(context.Background(), actor, lead.ID, transport.AssignLeadRequest{
				AssignedToUserID: repID,
			})

			if tt.wantKind == 0 {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if apperr.GetKind(err) != tt.wantKind {
				t.Fatalf("kind = %v, want %v (err: %v)", apperr.GetKind(err), tt.wantKind, err)
			}
		})
	}
}

func TestAssignUnknownAssignee(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeDirectory{users: map[uuid.UUID]Assignee{}})
	lead := mustCreate(t, svc, "+919876543210")

	admin := policy.Actor{ID: uuid.New(), Tier: policy.TierAdmin}
	_, err := svc.Assign(context.Background(), admin, lead.ID, transport.AssignLeadRequest{
		AssignedToUserID: uuid.New(),
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown assignee, got %v", err)
	}
}

func TestUpdateStatusFreshLeadLocked(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeDirectory{})
	lead := mustCreate(t, svc, "+919876543210")

	// Even an admin cannot update a fresh lead.
	admin := policy.Actor{ID: uuid.New(), Tier: policy.TierAdmin}
	_, err := svc.UpdateStatus(context.Background(), admin, lead.ID, transport.UpdateLeadStatusRequest{
		Status: transport.LeadStatusContacted,
	})
	if apperr.GetKind(err) != apperr.KindFreshLead {
		t.Fatalf("expected fresh-lead error, got %v", err)
	}
}

func TestUpdateStatusForbiddenBeatsFreshLock(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeDirectory{})
	lead := mustCreate(t, svc, "+919876543210")

	// A rep who is not the assignee gets a permission error, not a
	// fresh-lead error, so the response never leaks assignment state.
	rep := policy.Actor{ID: uuid.New(), Tier: policy.TierSalesRep}
	_, err := svc.UpdateStatus(context.Background(), rep, lead.ID, transport.UpdateLeadStatusRequest{
		Status: transport.LeadStatusContacted,
	})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func assignTo(t *testing.T, svc *Service, dir *fakeDirectory, leadID uuid.UUID, assigneeID uuid.UUID) {
	t.Helper()
	dir.users[assigneeID] = Assignee{ID: assigneeID, Name: "Rep", Tier: 4, IsActive: true}
	admin := policy.Actor{ID: uuid.New(), Tier: policy.TierAdmin}
	if _, err := svc.Assign(context.Background(), admin, leadID, transport.AssignLeadRequest{
		AssignedToUserID: assigneeID,
	}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
}

func TestUpdateStatusRecordsHistoryAndLastContacted(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{users: map[uuid.UUID]Assignee{}}
	svc, _ := newTestService(repo, dir)

	lead := mustCreate(t, svc, "+919876543210")
	repID := uuid.New()
	assignTo(t, svc, dir, lead.ID, repID)

	rep := policy.Actor{ID: repID, Tier: policy.TierSalesRep}
	updated, err := svc.UpdateStatus(context.Background(), rep, lead.ID, transport.UpdateLeadStatusRequest{
		Status: transport.LeadStatusContacted,
		Notes:  "spoke on the phone",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if updated.Status != "contacted" {
		t.Errorf("status = %q, want contacted", updated.Status)
	}
	if updated.LastContactedAt == nil {
		t.Error("contacted status must stamp last_contacted_at")
	}

	history, _ := repo.ListHistory(context.Background(), lead.ID)
	if len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(history))
	}
	if history[0].OldStatus == nil || *history[0].OldStatus != "new" {
		t.Errorf("history old status = %v, want new", history[0].OldStatus)
	}
	if history[0].NewStatus != "contacted" {
		t.Errorf("history new status = %q, want contacted", history[0].NewStatus)
	}
}

func TestUpdateStatusSameStatusStillRecorded(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{users: map[uuid.UUID]Assignee{}}
	svc, _ := newTestService(repo, dir)

	lead := mustCreate(t, svc, "+919876543210")
	repID := uuid.New()
	assignTo(t, svc, dir, lead.ID, repID)

	rep := policy.Actor{ID: repID, Tier: policy.TierSalesRep}
	for i := 0; i < 2; i++ {
		if _, err := svc.UpdateStatus(context.Background(), rep, lead.ID, transport.UpdateLeadStatusRequest{
			Status: transport.LeadStatusQualified,
		}); err != nil {
			t.Fatalf("UpdateStatus #%d: %v", i+1, err)
		}
	}

	history, _ := repo.ListHistory(context.Background(), lead.ID)
	if len(history) != 2 {
		t.Fatalf("redundant transitions must still be recorded, got %d rows", len(history))
	}
	if *history[1].OldStatus != "qualified" || history[1].NewStatus != "qualified" {
		t.Errorf("second row = %s -> %s, want qualified -> qualified", *history[1].OldStatus, history[1].NewStatus)
	}
}

func TestAddCommentPermissions(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{users: map[uuid.UUID]Assignee{}}
	svc, _ := newTestService(repo, dir)

	lead := mustCreate(t, svc, "+919876543210")
	repID := uuid.New()
	assignTo(t, svc, dir, lead.ID, repID)

	otherRep := policy.Actor{ID: uuid.New(), Tier: policy.TierSalesRep}
	_, err := svc.AddComment(context.Background(), otherRep, lead.ID, transport.AddCommentRequest{
		Comment: "trying to poach",
	})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-assignee rep, got %v", err)
	}

	assignee := policy.Actor{ID: repID, Tier: policy.TierSalesRep}
	if _, err := svc.AddComment(context.Background(), assignee, lead.ID, transport.AddCommentRequest{
		Comment: "customer wants a callback tomorrow",
	}); err != nil {
		t.Fatalf("assignee comment should succeed: %v", err)
	}
}

func TestDeleteAdminOnly(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeDirectory{})
	lead := mustCreate(t, svc, "+919876543210")

	manager := policy.Actor{ID: uuid.New(), Tier: policy.TierAreaManager}
	if err := svc.Delete(context.Background(), manager, lead.ID); apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-admin delete, got %v", err)
	}

	admin := policy.Actor{ID: uuid.New(), Tier: policy.TierAdmin}
	if err := svc.Delete(context.Background(), admin, lead.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), lead.ID); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("deleted lead should be gone, got %v", err)
	}

	// Soft-deleted leads also free their phone number.
	if _, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Fresh Start",
		Phone:  "+919876543210",
		Source: transport.LeadSourceManual,
	}); err != nil {
		t.Fatalf("phone of a deleted lead should be reusable: %v", err)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &fakeDirectory{})

	tests := []struct {
		name string
		req  transport.CreateLeadRequest
	}{
		{"missing name", transport.CreateLeadRequest{Phone: "+919876543210", Source: "manual"}},
		{"short phone", transport.CreateLeadRequest{Name: "Ravi", Phone: "12345", Source: "manual"}},
		{"bad source", transport.CreateLeadRequest{Name: "Ravi", Phone: "+919876543210", Source: "billboard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			if apperr.GetKind(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
