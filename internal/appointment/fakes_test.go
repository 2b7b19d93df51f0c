package appointment_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/glowbook/glowbook/internal/appointment"
	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/salon"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/glowbook/glowbook/internal/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	tenantA = "11111111-1111-4111-8111-111111111111"
	tenantB = "22222222-2222-4222-8222-222222222222"
)

// monday is the fixed "now" of every service test.
var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(24 * time.Hour).Add(time.Duration(hour-9)*time.Hour + time.Duration(minute)*time.Minute)
}

type fakeRepo struct {
	mu    sync.Mutex
	appts map[string]appointment.Appointment
}

func (f *fakeRepo) overlaps(staffID string, start, end time.Time, exclude string) bool {
	for _, a := range f.appts {
		if a.ID == exclude || a.StaffID != staffID || !a.Open() {
			continue
		}
		if a.StartsAt.Before(end) && a.EndsAt.After(start) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) Book(_ context.Context, a *appointment.Appointment) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overlaps(a.StaffID, a.StartsAt, a.EndsAt, "") {
		return nil, appointment.ErrSlotTaken
	}
	c := *a
	c.ID = uuid.NewString()
	c.Status = appointment.StatusBooked
	f.appts[c.ID] = c
	return &c, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeRepo) List(_ context.Context, filter scope.AppointmentFilter) ([]appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []appointment.Appointment{}
	for _, a := range f.appts {
		switch {
		case filter.TenantID != "" && a.TenantID != filter.TenantID,
			filter.SalonID != "" && a.SalonID != filter.SalonID,
			filter.CustomerID != "" && a.CustomerID != filter.CustomerID,
			filter.StaffID != "" && a.StaffID != filter.StaffID,
			filter.Status != "" && a.Status != filter.Status:
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (f *fakeRepo) Reschedule(_ context.Context, id string, start, end time.Time) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	if !a.Open() {
		return nil, appointment.ErrInvalidTransition
	}
	if f.overlaps(a.StaffID, start, end, id) {
		return nil, appointment.ErrSlotTaken
	}
	a.StartsAt, a.EndsAt = start, end
	f.appts[id] = a
	return &a, nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id, from, to string) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok || a.Status != from {
		return nil, appointment.ErrInvalidTransition
	}
	a.Status = to
	f.appts[id] = a
	return &a, nil
}

type salonLookup map[string]salon.Salon

func (l salonLookup) GetByID(_ context.Context, id string) (*salon.Salon, error) {
	s, ok := l[id]
	if !ok {
		return nil, salon.ErrSalonNotFound
	}
	return &s, nil
}

type userLookup map[string]user.User

func (l userLookup) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := l[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

type captureLogger struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureLogger) Log(_ context.Context, e audit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) Close() error { return nil }

func (c *captureLogger) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	svc  *appointment.Service
	repo *fakeRepo
	logs *captureLogger

	salonA, closedA, salonB string

	admin, ownerA, ownerB, staffA, staffA2, staffB, cust1, cust2, custA, guest *auth.Principal
}

func newFixture() *fixture {
	fx := &fixture{
		repo: &fakeRepo{appts: map[string]appointment.Appointment{}},
		logs: &captureLogger{},
	}
	salons := salonLookup{}
	users := userLookup{}

	addSalon := func(tenantID, name string, active bool) string {
		id := uuid.NewString()
		salons[id] = salon.Salon{ID: id, TenantID: tenantID, Name: name, Active: active}
		return id
	}
	addUser := func(tenantID string, roles ...role.Role) *auth.Principal {
		id := uuid.NewString()
		users[id] = user.User{ID: id, TenantID: tenantID, Status: "active", Roles: roles}
		return &auth.Principal{UserID: id, TenantID: tenantID, Roles: roles}
	}

	fx.salonA = addSalon(tenantA, "Rose Soho", true)
	fx.closedA = addSalon(tenantA, "Rose Camden", false)
	fx.salonB = addSalon(tenantB, "Lily Chelsea", true)

	fx.admin = addUser("", role.Admin)
	fx.ownerA = addUser(tenantA, role.Owner)
	fx.ownerB = addUser(tenantB, role.Owner)
	fx.staffA = addUser(tenantA, role.Staff)
	fx.staffA2 = addUser(tenantA, role.Staff)
	fx.staffB = addUser(tenantB, role.Staff)
	fx.cust1 = addUser("", role.Customer)
	fx.cust2 = addUser("", role.Customer)
	fx.custA = addUser(tenantA, role.Customer)
	fx.guest = addUser("", role.Guest)

	fx.svc = appointment.NewService(fx.repo, salons, users, role.Default(), fx.logs,
		appointment.WithClock(func() time.Time { return monday }))
	return fx
}

func ctxFor(p *auth.Principal) context.Context {
	return auth.WithPrincipal(context.Background(), p)
}

// book makes cust1 book staffA at salonA for the given window.
func (fx *fixture) book(t *testing.T, start, end time.Time) *appointment.Appointment {
	t.Helper()
	a, err := fx.svc.Book(ctxFor(fx.cust1), fx.cust1, appointment.BookInput{
		SalonID: fx.salonA, StaffID: fx.staffA.UserID, Service: "Haircut", StartsAt: start, EndsAt: end,
	})
	require.NoError(t, err)
	return a
}
