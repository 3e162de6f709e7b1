// Package testfixtures holds an in-memory implementation of the scheduling
// repositories plus seed data shared by use case and handler tests.
package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Store keeps every table in memory. Transactions run concurrently, the
// way Postgres runs them under READ COMMITTED: writes land immediately and
// are undone on error. The only serialization comes from LockTherapist,
// LockGroup and the ...ForUpdate reads, which hold keyed locks until the
// transaction ends. Writers also enforce the no-overlap and unique invoice
// number constraints the Postgres schema has.
type Store struct {
	// NoExclusion turns off the appointments_no_overlap emulation, so
	// locking is the only guard against double-booking.
	NoExclusion bool

	// ReadDelay pauses after conflict and queue-length reads, widening the
	// window between a check and the write that depends on it.
	ReadDelay time.Duration

	mu       sync.Mutex
	nextID   uint
	data     tables
	keyLocks map[string]*sync.Mutex
}

// txState is one open transaction: its undo log and the keyed locks it holds.
type txState struct {
	undo  []func()
	held  map[string]bool
	locks []*sync.Mutex
}

type tables struct {
	branches     map[uint]models.Branch
	services     map[uint]models.Service
	therapists   map[uint]models.TherapistProfile
	availability map[uint]models.TherapistAvailability
	holidays     map[uint]models.Holiday
	appointments map[uint]models.Appointment
	payments     map[uint]models.Payment
	invoices     map[uint]models.Invoice
	waitlist     map[uint]models.WaitlistEntry
}

func NewStore() *Store {
	return &Store{keyLocks: map[string]*sync.Mutex{}, data: tables{
		branches:     map[uint]models.Branch{},
		services:     map[uint]models.Service{},
		therapists:   map[uint]models.TherapistProfile{},
		availability: map[uint]models.TherapistAvailability{},
		holidays:     map[uint]models.Holiday{},
		appointments: map[uint]models.Appointment{},
		payments:     map[uint]models.Payment{},
		invoices:     map[uint]models.Invoice{},
		waitlist:     map[uint]models.WaitlistEntry{},
	}}
}

// remember records how to restore m[id] if tx rolls back. Callers hold
// s.mu.
func remember[V any](tx *txState, m map[uint]V, id uint) {
	if tx == nil {
		return
	}
	prev, existed := m[id]
	tx.undo = append(tx.undo, func() {
		if existed {
			m[id] = prev
		} else {
			delete(m, id)
		}
	})
}

func sortedValues[V any](m map[uint]V) []V {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]V, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// transaction runs fn, undoes its writes when it fails and releases every
// lock it took.
func (s *Store) transaction(fn func(tx *txState) error) error {
	tx := &txState{held: map[string]bool{}}

	err := fn(tx)
	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
	}

	for i := len(tx.locks) - 1; i >= 0; i-- {
		tx.locks[i].Unlock()
	}
	return err
}

// lock takes the named lock for the rest of tx. Outside a transaction it is
// a no-op, like a transaction-scoped advisory lock in autocommit mode.
func (s *Store) lock(ctx context.Context, tx *txState, key string) error {
	if tx == nil || tx.held[key] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	m, ok := s.keyLocks[key]
	if !ok {
		m = &sync.Mutex{}
		s.keyLocks[key] = m
	}
	s.mu.Unlock()

	m.Lock()
	tx.held[key] = true
	tx.locks = append(tx.locks, m)
	return nil
}

func (s *Store) pause() {
	if s.ReadDelay > 0 {
		time.Sleep(s.ReadDelay)
	}
}

func notFound() error {
	return httperr.ErrBusiness(httperr.CodeNotFound)
}

// ======================================================
// Seeding
// ======================================================

func (s *Store) AddBranch(b models.Branch) models.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.id()
	}
	if b.Timezone == "" {
		b.Timezone = "UTC"
	}
	s.data.branches[b.ID] = b
	return b
}

// AddService links the service to the given branches.
func (s *Store) AddService(svc models.Service, branchIDs ...uint) models.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == 0 {
		svc.ID = s.id()
	}
	for _, id := range branchIDs {
		svc.Branches = append(svc.Branches, s.data.branches[id])
	}
	s.data.services[svc.ID] = svc
	return svc
}

func (s *Store) AddTherapist(t models.TherapistProfile, branchIDs, serviceIDs []uint) models.TherapistProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	}
	for _, id := range branchIDs {
		t.Branches = append(t.Branches, s.data.branches[id])
	}
	for _, id := range serviceIDs {
		svc := s.data.services[id]
		svc.Branches = nil
		t.Services = append(t.Services, svc)
	}
	s.data.therapists[t.ID] = t
	return t
}

func (s *Store) AddAvailability(w models.TherapistAvailability) models.TherapistAvailability {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == 0 {
		w.ID = s.id()
	}
	if w.Recurrence == "" {
		w.Recurrence = models.RecurrenceNone
	}
	s.data.availability[w.ID] = w
	return w
}

func (s *Store) AddHoliday(h models.Holiday) models.Holiday {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == 0 {
		h.ID = s.id()
	}
	s.data.holidays[h.ID] = h
	return h
}

// PutAppointment stores ap as is, bypassing validation.
func (s *Store) PutAppointment(ap models.Appointment) models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ap.ID == 0 {
		ap.ID = s.id()
	}
	s.data.appointments[ap.ID] = ap
	return ap
}

func (s *Store) PutWaitlistEntry(e models.WaitlistEntry) models.WaitlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	}
	s.data.waitlist[e.ID] = e
	return e
}

func (s *Store) PutPayment(p models.Payment) models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.data.payments[p.ID] = p
	return p
}

// ======================================================
// Assertions
// ======================================================

func (s *Store) AllAppointments() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.appointments)
}

func (s *Store) AllWaitlist() []models.WaitlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.waitlist)
}

func (s *Store) AllPayments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.payments)
}

func (s *Store) AllInvoices() []models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.invoices)
}

// ======================================================
// Appointment repository
// ======================================================

type AppointmentRepo struct {
	s  *Store
	tx *txState
}

var _ domain.Repository = (*AppointmentRepo)(nil)

func (s *Store) AppointmentRepo() *AppointmentRepo { return &AppointmentRepo{s: s} }

func (r *AppointmentRepo) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.s.transaction(func(tx *txState) error {
		return fn(&AppointmentRepo{s: r.s, tx: tx})
	})
}

func (r *AppointmentRepo) LockTherapist(ctx context.Context, therapistID uint) error {
	return r.s.lock(ctx, r.tx, fmt.Sprintf("therapist:%d", therapistID))
}

func (r *AppointmentRepo) GetService(_ context.Context, id uint) (*models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.data.services[id]
	if !ok {
		return nil, notFound()
	}
	return &svc, nil
}

func (r *AppointmentRepo) GetBranch(_ context.Context, id uint) (*models.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.branches[id]
	if !ok {
		return nil, notFound()
	}
	return &b, nil
}

func (r *AppointmentRepo) GetTherapist(_ context.Context, id uint) (*models.TherapistProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.therapists[id]
	if !ok {
		return nil, notFound()
	}
	return &t, nil
}

func (r *AppointmentRepo) ListAvailability(_ context.Context, therapistID uint, _ time.Time, to time.Time) ([]models.TherapistAvailability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TherapistAvailability
	for _, w := range sortedValues(r.s.data.availability) {
		if w.TherapistID == therapistID && w.StartTime.Before(to) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *AppointmentRepo) ListHolidays(_ context.Context, branchID uint, _, _ time.Time) ([]models.Holiday, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Holiday
	for _, h := range sortedValues(r.s.data.holidays) {
		if h.BranchID == nil || *h.BranchID == branchID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *AppointmentRepo) GetAppointment(_ context.Context, id uint) (*models.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ap, ok := r.s.data.appointments[id]
	if !ok {
		return nil, notFound()
	}
	return &ap, nil
}

func (r *AppointmentRepo) GetAppointmentForUpdate(ctx context.Context, id uint) (*models.Appointment, error) {
	if err := r.s.lock(ctx, r.tx, fmt.Sprintf("appointment:%d", id)); err != nil {
		return nil, err
	}
	return r.GetAppointment(ctx, id)
}

func (r *AppointmentRepo) FindOverlapping(_ context.Context, therapistID uint, start, end time.Time) ([]models.Appointment, error) {
	defer r.s.pause()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Appointment
	for _, ap := range sortedValues(r.s.data.appointments) {
		if ap.TherapistID == therapistID &&
			domain.Status(ap.Status).IsActive() &&
			domain.Overlaps(ap.StartTime, ap.EndTime, start, end) {
			out = append(out, ap)
		}
	}
	return out, nil
}

// violatesExclusion mirrors the appointments_no_overlap constraint.
func (s *Store) violatesExclusion(ap *models.Appointment) bool {
	if s.NoExclusion || !domain.Status(ap.Status).IsActive() {
		return false
	}
	for _, other := range s.data.appointments {
		if other.ID == ap.ID || other.TherapistID != ap.TherapistID {
			continue
		}
		if domain.Status(other.Status).IsActive() &&
			domain.Overlaps(other.StartTime, other.EndTime, ap.StartTime, ap.EndTime) {
			return true
		}
	}
	return false
}

func (r *AppointmentRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.violatesExclusion(ap) {
		return httperr.ErrBusiness(httperr.CodeSlotConflict)
	}
	ap.ID = r.s.id()
	remember(r.tx, r.s.data.appointments, ap.ID)
	r.s.data.appointments[ap.ID] = *ap
	return nil
}

func (r *AppointmentRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.appointments[ap.ID]; !ok {
		return notFound()
	}
	if r.s.violatesExclusion(ap) {
		return httperr.ErrBusiness(httperr.CodeSlotConflict)
	}
	remember(r.tx, r.s.data.appointments, ap.ID)
	r.s.data.appointments[ap.ID] = *ap
	return nil
}

func (r *AppointmentRepo) ListAppointments(_ context.Context, scope access.Scope, f domain.ListFilter) ([]models.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.s.data.appointments {
		therapistID := ap.TherapistID
		if !scope.CanSee(ap.CustomerID, &therapistID) {
			continue
		}
		if !f.From.IsZero() && ap.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !ap.StartTime.Before(f.To) {
			continue
		}
		if f.Status != "" && ap.Status != f.Status {
			continue
		}
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

func (r *AppointmentRepo) CountByStatus(_ context.Context, scope access.Scope) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int64{}
	for _, ap := range r.s.data.appointments {
		therapistID := ap.TherapistID
		if scope.CanSee(ap.CustomerID, &therapistID) {
			out[ap.Status]++
		}
	}
	return out, nil
}

func (r *AppointmentRepo) HasCompletedPayment(_ context.Context, appointmentID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.payments {
		if p.AppointmentID == appointmentID && p.Status == models.PaymentCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepo) CreatePayment(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.id()
	remember(r.tx, r.s.data.payments, p.ID)
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r *AppointmentRepo) CreateInvoice(_ context.Context, inv *models.Invoice, nextNumber func() string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	taken := func(n string) bool {
		for _, other := range r.s.data.invoices {
			if other.InvoiceNumber == n {
				return true
			}
		}
		return false
	}

	for attempt := 0; attempt < 5; attempt++ {
		if inv.InvoiceNumber == "" {
			inv.InvoiceNumber = nextNumber()
		}
		if !taken(inv.InvoiceNumber) {
			inv.ID = r.s.id()
			remember(r.tx, r.s.data.invoices, inv.ID)
			r.s.data.invoices[inv.ID] = *inv
			return nil
		}
		inv.InvoiceNumber = ""
	}
	return httperr.ErrBusiness(httperr.CodeBusy)
}

func (r *AppointmentRepo) ListPayments(_ context.Context, scope access.Scope) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Payment
	for _, p := range sortedValues(r.s.data.payments) {
		ap := r.s.data.appointments[p.AppointmentID]
		therapistID := ap.TherapistID
		if scope.CanSee(ap.CustomerID, &therapistID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *AppointmentRepo) ListInvoices(_ context.Context, scope access.Scope) ([]models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range sortedValues(r.s.data.invoices) {
		var therapistID *uint
		if inv.AppointmentID != nil {
			id := r.s.data.appointments[*inv.AppointmentID].TherapistID
			therapistID = &id
		}
		if scope.CanSee(inv.CustomerID, therapistID) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *AppointmentRepo) GetInvoice(_ context.Context, id uint) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.data.invoices[id]
	if !ok {
		return nil, notFound()
	}
	return &inv, nil
}

// ======================================================
// Waitlist repository
// ======================================================

type WaitlistRepo struct {
	s  *Store
	tx *txState
}

var _ waitlist.Repository = (*WaitlistRepo)(nil)

func (s *Store) WaitlistRepo() *WaitlistRepo { return &WaitlistRepo{s: s} }

func (r *WaitlistRepo) Transaction(ctx context.Context, fn func(tx waitlist.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.s.transaction(func(tx *txState) error {
		return fn(&WaitlistRepo{s: r.s, tx: tx})
	})
}

func (r *WaitlistRepo) LockGroup(ctx context.Context, key waitlist.Key) error {
	return r.s.lock(ctx, r.tx, key.String())
}

func (r *WaitlistRepo) CountActive(_ context.Context, key waitlist.Key) (int64, error) {
	defer r.s.pause()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, e := range r.s.data.waitlist {
		if key.Matches(&e) && e.Status == string(waitlist.StatusActive) {
			n++
		}
	}
	return n, nil
}

func (r *WaitlistRepo) Create(_ context.Context, e *models.WaitlistEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	remember(r.tx, r.s.data.waitlist, e.ID)
	r.s.data.waitlist[e.ID] = *e
	return nil
}

func (r *WaitlistRepo) Get(_ context.Context, id uint) (*models.WaitlistEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.data.waitlist[id]
	if !ok {
		return nil, notFound()
	}
	return &e, nil
}

func (r *WaitlistRepo) GetForUpdate(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	if err := r.s.lock(ctx, r.tx, fmt.Sprintf("waitlist-entry:%d", id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *WaitlistRepo) Update(_ context.Context, e *models.WaitlistEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.waitlist[e.ID]; !ok {
		return notFound()
	}
	remember(r.tx, r.s.data.waitlist, e.ID)
	r.s.data.waitlist[e.ID] = *e
	return nil
}

func (r *WaitlistRepo) ShiftAfter(_ context.Context, key waitlist.Key, position int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.data.waitlist {
		if key.Matches(&e) && e.Status == string(waitlist.StatusActive) && e.Position > position {
			remember(r.tx, r.s.data.waitlist, id)
			e.Position--
			r.s.data.waitlist[id] = e
		}
	}
	return nil
}

func (r *WaitlistRepo) List(_ context.Context, scope access.Scope, f waitlist.ListFilter) ([]models.WaitlistEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range r.s.data.waitlist {
		if !scope.CanSee(e.CustomerID, e.TherapistID) {
			continue
		}
		if f.ServiceID != nil && e.ServiceID != *f.ServiceID {
			continue
		}
		if f.BranchID != nil && e.BranchID != *f.BranchID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
