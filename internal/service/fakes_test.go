package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
)

func strPtr(s string) *string { return &s }

// fakeOfficerRepo is an in-memory OfficerRepository.
type fakeOfficerRepo struct {
	mu       sync.Mutex
	officers map[string]*domain.Officer
}

func newFakeOfficerRepo() *fakeOfficerRepo {
	return &fakeOfficerRepo{officers: make(map[string]*domain.Officer)}
}

func (r *fakeOfficerRepo) add(officer domain.Officer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := officer
	r.officers[officer.ID] = &copied
}

func (r *fakeOfficerRepo) Create(_ context.Context, officer *domain.Officer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if officer.ID == "" {
		officer.ID = fmt.Sprintf("off-%d", len(r.officers)+1)
	}
	officer.CreatedAt = time.Now()
	officer.UpdatedAt = officer.CreatedAt
	copied := *officer
	r.officers[officer.ID] = &copied
	return nil
}

func (r *fakeOfficerRepo) Update(_ context.Context, officer *domain.Officer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.officers[officer.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	counter := stored.TotalAssignedCount
	copied := *officer
	copied.TotalAssignedCount = counter
	r.officers[officer.ID] = &copied
	return nil
}

func (r *fakeOfficerRepo) GetByID(_ context.Context, id string) (*domain.Officer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	officer, ok := r.officers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *officer
	return &copied, nil
}

func (r *fakeOfficerRepo) GetByEmail(_ context.Context, email string) (*domain.Officer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, officer := range r.officers {
		if officer.Email == email {
			copied := *officer
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOfficerRepo) List(_ context.Context, filter repository.OfficerFilter) ([]domain.Officer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Officer
	for _, officer := range r.officers {
		if filter.Active != nil && officer.Active != *filter.Active {
			continue
		}
		if filter.Role != nil && officer.Role != *filter.Role {
			continue
		}
		if filter.Department != nil && officer.Department != *filter.Department {
			continue
		}
		if filter.MinHierarchyLevel != nil && officer.HierarchyLevel < *filter.MinHierarchyLevel {
			continue
		}
		result = append(result, *officer)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *fakeOfficerRepo) bumpCounter(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	officer, ok := r.officers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	officer.TotalAssignedCount++
	return nil
}

func (r *fakeOfficerRepo) counter(id string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if officer, ok := r.officers[id]; ok {
		return officer.TotalAssignedCount
	}
	return -1
}

// fakeApplicationRepo is an in-memory ApplicationRepository. Assign mirrors
// the production transaction by bumping the officer counter in the same call.
type fakeApplicationRepo struct {
	mu          sync.Mutex
	apps        map[string]*domain.Application
	officers    *fakeOfficerRepo
	seq         int
	assignCalls int
}

func newFakeApplicationRepo(officers *fakeOfficerRepo) *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[string]*domain.Application), officers: officers}
}

func (r *fakeApplicationRepo) add(app domain.Application) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := app
	r.apps[app.ID] = &copied
}

func (r *fakeApplicationRepo) Create(_ context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	app.ID = fmt.Sprintf("app-%d", r.seq)
	copied := *app
	r.apps[app.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) Update(_ context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *app
	r.apps[app.ID] = &copied
	return nil
}

func (r *fakeApplicationRepo) Assign(ctx context.Context, app *domain.Application) error {
	if app.OfficerID == nil {
		return fmt.Errorf("assign: application %s has no officer", app.ID)
	}
	if err := r.Update(ctx, app); err != nil {
		return err
	}
	if err := r.officers.bumpCounter(*app.OfficerID); err != nil {
		return err
	}
	r.mu.Lock()
	r.assignCalls++
	r.mu.Unlock()
	return nil
}

func (r *fakeApplicationRepo) GetByID(_ context.Context, id string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *app
	return &copied, nil
}

func (r *fakeApplicationRepo) GetByTrackingID(_ context.Context, trackingID string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.TrackingID == trackingID {
			copied := *app
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeApplicationRepo) ListWithFilter(_ context.Context, filter repository.ApplicationFilter) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Application
	for _, app := range r.apps {
		if filter.CitizenID != nil && app.CitizenID != *filter.CitizenID {
			continue
		}
		if filter.Department != nil && app.Department != *filter.Department {
			continue
		}
		if filter.OfficerID != nil && (app.OfficerID == nil || *app.OfficerID != *filter.OfficerID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, app.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, app.Priority) {
			continue
		}
		result = append(result, *app)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeApplicationRepo) ListOverdueSLA(_ context.Context, now time.Time, _ int) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Application
	for _, app := range r.apps {
		if !app.Status.IsTerminal() && app.SLADueAt.Before(now) {
			result = append(result, *app)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SLADueAt.Before(result[j].SLADueAt) })
	return result, nil
}

func (r *fakeApplicationRepo) ListOverdueAutoApproval(_ context.Context, now time.Time, _ int) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Application
	for _, app := range r.apps {
		if !app.Status.IsTerminal() && app.AutoApprovalDeadline.Before(now) {
			result = append(result, *app)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AutoApprovalDeadline.Before(result[j].AutoApprovalDeadline) })
	return result, nil
}

func (r *fakeApplicationRepo) CountActiveByOfficer(_ context.Context, officerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, app := range r.apps {
		if app.OfficerID != nil && *app.OfficerID == officerID &&
			(app.Status == domain.ApplicationStatusAssigned || app.Status == domain.ApplicationStatusInProgress) {
			count++
		}
	}
	return count, nil
}

func containsStatus(list []domain.ApplicationStatus, s domain.ApplicationStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.ApplicationPriority, p domain.ApplicationPriority) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

// fakeHistoryRepo collects audit entries in memory.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.ApplicationHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *domain.ApplicationHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = fmt.Sprintf("hist-%d", len(r.entries)+1)
	history.CreatedAt = time.Now()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByApplication(_ context.Context, applicationID string, _, _ int) ([]domain.ApplicationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ApplicationHistory
	for _, entry := range r.entries {
		if entry.ApplicationID == applicationID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) byType(changeType domain.ApplicationChangeType) []domain.ApplicationHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ApplicationHistory
	for _, entry := range r.entries {
		if entry.ChangeType == changeType {
			result = append(result, entry)
		}
	}
	return result
}

// fakeStamper counts stamp invocations.
type fakeStamper struct {
	mu       sync.Mutex
	artifact string
	err      error
	calls    int
}

func (s *fakeStamper) Stamp(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.artifact == "" {
		return "artifact-1", nil
	}
	return s.artifact, nil
}

func (s *fakeStamper) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// lifecycleFixture bundles a lifecycle service with its fakes.
type lifecycleFixture struct {
	officers   *fakeOfficerRepo
	apps       *fakeApplicationRepo
	history    *fakeHistoryRepo
	dispatcher *recordingDispatcher
	stamper    *fakeStamper
	lifecycle  *LifecycleService
	now        time.Time
}

func testWindows() config.LifecycleConfig {
	return config.LifecycleConfig{
		SLAHighHours:     24,
		SLAMediumHours:   48,
		SLALowHours:      72,
		AutoApprovalDays: 30,
	}
}

func newLifecycleFixture() *lifecycleFixture {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	history := newFakeHistoryRepo()
	dispatcher := &recordingDispatcher{}
	stamper := &fakeStamper{}

	svc := NewLifecycleService(testWindows(), LifecycleDependencies{
		ApplicationRepo: apps,
		OfficerRepo:     officers,
		HistoryRepo:     history,
		Dispatcher:      dispatcher,
		Stamper:         stamper,
		Logger:          zap.NewNop(),
	})
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &lifecycleFixture{
		officers:   officers,
		apps:       apps,
		history:    history,
		dispatcher: dispatcher,
		stamper:    stamper,
		lifecycle:  svc,
		now:        now,
	}
}
