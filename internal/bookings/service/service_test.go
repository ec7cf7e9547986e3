package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadbook_backend/internal/bookings/repository"
	"leadbook_backend/internal/bookings/transport"
	"leadbook_backend/internal/events"
	"leadbook_backend/platform/apperr"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/validator"
)

// fakeRepo reproduces the conversion transaction in memory: the oldest
// matching open lead converts, and conversion is atomic with the booking
// insert.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]repository.Booking
	// open leads keyed by id; Phone and CreatedAt drive matching.
	openLeads map[uuid.UUID]fakeLead
	converted map[uuid.UUID]uuid.UUID // lead -> booking
}

type fakeLead struct {
	ID        uuid.UUID
	Phone     string
	CreatedAt time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings:  make(map[uuid.UUID]repository.Booking),
		openLeads: make(map[uuid.UUID]fakeLead),
		converted: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeRepo) addOpenLead(phoneNumber string, createdAt time.Time) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead := fakeLead{ID: uuid.New(), Phone: phoneNumber, CreatedAt: createdAt}
	f.openLeads[lead.ID] = lead
	return lead.ID
}

func (f *fakeRepo) CreateWithConversion(_ context.Context, params repository.CreateBookingParams) (repository.Booking, *uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking := repository.Booking{
		ID:              uuid.New(),
		CustomerName:    params.CustomerName,
		Phone:           params.Phone,
		Location:        params.Location,
		Services:        params.Services,
		Date:            params.Date,
		TimeSlot:        params.TimeSlot,
		Status:          "pending",
		CreatedByUserID: params.CreatedByUserID,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	var oldest *fakeLead
	for id := range f.openLeads {
		lead := f.openLeads[id]
		if lead.Phone != params.Phone {
			continue
		}
		if oldest == nil || lead.CreatedAt.Before(oldest.CreatedAt) {
			copied := lead
			oldest = &copied
		}
	}

	f.bookings[booking.ID] = booking
	if oldest == nil {
		return booking, nil, nil
	}

	delete(f.openLeads, oldest.ID)
	f.converted[oldest.ID] = booking.ID
	leadID := oldest.ID
	booking.LeadID = &leadID
	f.bookings[booking.ID] = booking
	return booking, &leadID, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return repository.Booking{}, repository.ErrNotFound
	}
	return booking, nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.ListParams) ([]repository.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bookings := make([]repository.Booking, 0, len(f.bookings))
	for _, booking := range f.bookings {
		bookings = append(bookings, booking)
	}
	return bookings, len(bookings), nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return repository.Booking{}, repository.ErrNotFound
	}
	booking.Status = status
	f.bookings[id] = booking
	return booking, nil
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

type testConfig struct{}

func (testConfig) GetTxTimeout() time.Duration { return 5 * time.Second }

func newTestService(repo *fakeRepo) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := NewService(repo, bus, validator.New(), logger.New("test"), testConfig{})
	return svc, bus
}

func validBookingRequest(name, phoneNumber string) transport.CreateBookingRequest {
	return transport.CreateBookingRequest{
		CustomerName: name,
		Phone:        phoneNumber,
		Location:     "Indiranagar",
		Services:     []string{"deep-clean"},
		Date:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TimeSlot:     "10:30",
	}
}

func TestCreateConvertsMatchingLead(t *testing.T) {
	repo := newFakeRepo()
	leadID := repo.addOpenLead("+919876543210", time.Now())
	svc, bus := newTestService(repo)

	req := validBookingRequest("Ravi Kumar", "98765 43210") // differently formatted, must still match
	result, err := svc.Create(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !result.LeadConverted {
		t.Fatal("expected lead conversion")
	}
	if result.ConvertedLeadID == nil || *result.ConvertedLeadID != leadID {
		t.Fatalf("converted lead = %v, want %s", result.ConvertedLeadID, leadID)
	}
	if result.Booking.LeadID == nil || *result.Booking.LeadID != leadID {
		t.Error("booking must reference the converted lead")
	}

	var sawConverted, sawCreated bool
	for _, event := range bus.events {
		switch event.EventName() {
		case "leads.converted":
			sawConverted = true
		case "bookings.created":
			sawCreated = true
		}
	}
	if !sawCreated || !sawConverted {
		t.Errorf("expected bookings.created and leads.converted events, got created=%v converted=%v", sawCreated, sawConverted)
	}
}

func TestCreateWithoutMatchingLead(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newTestService(repo)

	result, err := svc.Create(context.Background(), uuid.New(), validBookingRequest("Walk In", "+919812345678"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if result.LeadConverted {
		t.Error("no lead should have converted")
	}
	if result.Booking.Status != "pending" {
		t.Errorf("status = %q, want pending", result.Booking.Status)
	}

	for _, event := range bus.events {
		if event.EventName() == "leads.converted" {
			t.Error("leads.converted must not fire without a matching lead")
		}
	}
}

func TestCreateConvertsOldestLeadFirst(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	oldLead := repo.addOpenLead("+919876543210", now.Add(-48*time.Hour))
	repo.addOpenLead("+919876543210", now)
	svc, _ := newTestService(repo)

	result, err := svc.Create(context.Background(), uuid.New(), validBookingRequest("Ravi Kumar", "+919876543210"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if result.ConvertedLeadID == nil || *result.ConvertedLeadID != oldLead {
		t.Fatalf("converted %v, want the oldest lead %s", result.ConvertedLeadID, oldLead)
	}
}

func TestConcurrentBookingsConvertLeadOnce(t *testing.T) {
	repo := newFakeRepo()
	repo.addOpenLead("+919876543210", time.Now())
	svc, _ := newTestService(repo)

	const attempts = 8
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Create(context.Background(), uuid.New(), validBookingRequest("Racer", "+919876543210"))
			if err != nil {
				t.Errorf("Create: %v", err)
				results <- false
				return
			}
			results <- result.LeadConverted
		}()
	}
	wg.Wait()
	close(results)

	converted := 0
	for didConvert := range results {
		if didConvert {
			converted++
		}
	}
	if converted != 1 {
		t.Fatalf("exactly one booking should convert the lead, got %d", converted)
	}
	if len(repo.bookings) != attempts {
		t.Errorf("all bookings should persist, got %d of %d", len(repo.bookings), attempts)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())

	tests := []struct {
		name   string
		mutate func(*transport.CreateBookingRequest)
	}{
		{"short name", func(r *transport.CreateBookingRequest) { r.CustomerName = "X" }},
		{"short phone", func(r *transport.CreateBookingRequest) { r.Phone = "123" }},
		{"missing location", func(r *transport.CreateBookingRequest) { r.Location = "" }},
		{"no services", func(r *transport.CreateBookingRequest) { r.Services = nil }},
		{"missing date", func(r *transport.CreateBookingRequest) { r.Date = time.Time{} }},
		{"missing time slot", func(r *transport.CreateBookingRequest) { r.TimeSlot = "" }},
		{"malformed time slot", func(r *transport.CreateBookingRequest) { r.TimeSlot = "half past ten" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBookingRequest("Ravi Kumar", "+919876543210")
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), uuid.New(), req)
			if apperr.GetKind(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateStatusUnknownBooking(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), transport.UpdateBookingStatusRequest{
		Status: transport.BookingStatusConfirmed,
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
