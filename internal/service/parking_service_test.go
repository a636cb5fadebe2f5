package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"parkwise/internal/models"
)

type dirEntry struct {
	vehicle *models.Vehicle
	cred    *models.Credential
}

type fakeDirectory struct {
	entries map[string]dirEntry
}

func (d *fakeDirectory) Resolve(_ context.Context, ref string) (*models.Vehicle, *models.Credential, error) {
	entry, ok := d.entries[ref]
	if !ok {
		return nil, nil, models.ErrUnknownCredential
	}
	return entry.vehicle, entry.cred, nil
}

type fakeSlotPool struct {
	mu          sync.Mutex
	slots       map[int64]*models.Slot
	allocations []int64
	releases    []int64
}

func newFakeSlotPool(ids ...int64) *fakeSlotPool {
	pool := &fakeSlotPool{slots: make(map[int64]*models.Slot)}
	for _, id := range ids {
		pool.slots[id] = &models.Slot{
			ID:          id,
			SlotNo:      "S" + string(rune('0'+id)),
			RatePerHour: 20,
			Status:      models.SlotAvailable,
		}
	}
	return pool
}

func (p *fakeSlotPool) Allocate(_ context.Context) (*models.Slot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]int64, 0, len(p.slots))
	for id := range p.slots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if p.slots[id].Status == models.SlotAvailable {
			p.slots[id].Status = models.SlotOccupied
			p.allocations = append(p.allocations, id)
			copied := *p.slots[id]
			return &copied, nil
		}
	}
	return nil, models.ErrNoSlotsAvailable
}

func (p *fakeSlotPool) Release(_ context.Context, slotID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[slotID]
	if !ok || slot.Status != models.SlotOccupied {
		return models.ErrSlotNotOccupied
	}
	slot.Status = models.SlotAvailable
	p.releases = append(p.releases, slotID)
	return nil
}

func (p *fakeSlotPool) GetByID(_ context.Context, slotID int64) (*models.Slot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[slotID]
	if !ok {
		return nil, models.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (p *fakeSlotPool) status(slotID int64) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots[slotID].Status
}

func (p *fakeSlotPool) allocationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.allocations)
}

func (p *fakeSlotPool) forceAvailable(slotID int64) {
	p.mu.Lock()
	p.slots[slotID].Status = models.SlotAvailable
	p.mu.Unlock()
}

type fakeLedger struct {
	mu        sync.Mutex
	nextID    int64
	open      map[int64]*models.Session
	closed    []*models.Session
	openErr   error
	conflicts int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{open: make(map[int64]*models.Session)}
}

func (l *fakeLedger) Open(_ context.Context, vehicleID, slotID int64, at time.Time) (*models.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.openErr != nil {
		return nil, l.openErr
	}
	if l.conflicts > 0 {
		l.conflicts--
		return nil, models.ErrSessionConflict
	}
	if _, exists := l.open[vehicleID]; exists {
		return nil, models.ErrSessionConflict
	}

	l.nextID++
	session := &models.Session{
		ID:        l.nextID,
		VehicleID: vehicleID,
		SlotID:    slotID,
		EntryTime: at,
	}
	l.open[vehicleID] = session
	return session, nil
}

func (l *fakeLedger) Close(_ context.Context, vehicleID int64, at time.Time) (*models.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	session, ok := l.open[vehicleID]
	if !ok {
		return nil, models.ErrNotParked
	}
	exit := at
	session.ExitTime = &exit
	session.DurationMinutes = BillableMinutes(session.EntryTime, exit)
	delete(l.open, vehicleID)
	l.closed = append(l.closed, session)
	copied := *session
	return &copied, nil
}

func (l *fakeLedger) FindOpen(_ context.Context, vehicleID int64) (*models.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	session, ok := l.open[vehicleID]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

type fakeCharges struct {
	mu      sync.Mutex
	charges []*models.Charge
}

func (c *fakeCharges) Record(_ context.Context, charge *models.Charge) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.charges {
		if existing.SessionID == charge.SessionID {
			return errors.New("duplicate charge for session")
		}
	}
	c.charges = append(c.charges, charge)
	charge.ID = int64(len(c.charges))
	return nil
}

func (c *fakeCharges) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.charges)
}

func vehicleWithTag(id int64, plate, uid string, issued, expires time.Time) dirEntry {
	return dirEntry{
		vehicle: &models.Vehicle{ID: id, PlateNumber: plate},
		cred: &models.Credential{
			ID:        id,
			UID:       uid,
			VehicleID: id,
			IssuedAt:  issued,
			ExpiresAt: expires,
		},
	}
}

func newTestService(dir *fakeDirectory, pool *fakeSlotPool, ledger *fakeLedger, charges *fakeCharges, clock func() time.Time) *ParkingService {
	return NewParkingService(dir, pool, ledger, charges, nil, nil, clock, zap.NewNop())
}

func TestEntryExitRoundTrip(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	now := base
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}

	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	pool := newFakeSlotPool(1, 2)
	ledger := newFakeLedger()
	charges := &fakeCharges{}
	svc := newTestService(dir, pool, ledger, charges, clock)

	session, err := svc.Entry(context.Background(), "TAG-1")
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if session.SlotID != 1 {
		t.Fatalf("expected lowest slot first, got slot %d", session.SlotID)
	}
	if pool.status(1) != models.SlotOccupied {
		t.Fatalf("expected slot 1 occupied after entry")
	}

	clockMu.Lock()
	now = base.Add(90 * time.Minute)
	clockMu.Unlock()

	closed, charge, err := svc.Exit(context.Background(), "TAG-1", "card")
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if closed.ExitTime == nil {
		t.Fatalf("expected exit time set")
	}
	if charge.SessionID != session.ID {
		t.Fatalf("charge references session %d, want %d", charge.SessionID, session.ID)
	}
	if charge.DurationMinutes != 90 {
		t.Fatalf("expected 90 billable minutes, got %d", charge.DurationMinutes)
	}
	if charge.Amount != 30.00 {
		t.Fatalf("expected amount 30.00, got %.2f", charge.Amount)
	}
	if charge.Method != "card" {
		t.Fatalf("expected method card, got %s", charge.Method)
	}
	if pool.status(1) != models.SlotAvailable {
		t.Fatalf("expected slot 1 available after exit")
	}
	if charges.count() != 1 {
		t.Fatalf("expected exactly one charge, got %d", charges.count())
	}
}

func TestConcurrentEntriesSameVehicle(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	pool := newFakeSlotPool(1, 2, 3, 4)
	ledger := newFakeLedger()
	svc := newTestService(dir, pool, ledger, &fakeCharges{}, func() time.Time { return base })

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Entry(context.Background(), "TAG-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, alreadyParked int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrAlreadyParked):
			alreadyParked++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful entry, got %d", succeeded)
	}
	if alreadyParked != attempts-1 {
		t.Fatalf("expected %d AlreadyParked failures, got %d", attempts-1, alreadyParked)
	}
	if pool.allocationCount() != 1 {
		t.Fatalf("expected one slot allocation, got %d", pool.allocationCount())
	}
}

func TestSlotExhaustion(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	const slots = 3
	entries := make(map[string]dirEntry)
	for i := int64(1); i <= slots+1; i++ {
		uid := "TAG-" + string(rune('0'+i))
		entries[uid] = vehicleWithTag(i, "KA01AB000"+string(rune('0'+i)), uid, base.Add(-time.Hour), base.Add(24*time.Hour))
	}
	dir := &fakeDirectory{entries: entries}
	pool := newFakeSlotPool(1, 2, 3)
	ledger := newFakeLedger()
	svc := newTestService(dir, pool, ledger, &fakeCharges{}, func() time.Time { return base })

	var wg sync.WaitGroup
	results := make(chan error, slots+1)
	for i := int64(1); i <= slots+1; i++ {
		uid := "TAG-" + string(rune('0'+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Entry(context.Background(), uid)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, exhausted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrNoSlotsAvailable):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != slots {
		t.Fatalf("expected %d successful entries, got %d", slots, succeeded)
	}
	if exhausted != 1 {
		t.Fatalf("expected one NoSlotsAvailable failure, got %d", exhausted)
	}

	pool.mu.Lock()
	seen := make(map[int64]bool)
	for _, id := range pool.allocations {
		if seen[id] {
			pool.mu.Unlock()
			t.Fatalf("slot %d allocated twice", id)
		}
		seen[id] = true
	}
	pool.mu.Unlock()
}

func TestCredentialExpiryBoundary(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"EXPIRED": vehicleWithTag(1, "KA01AB0001", "EXPIRED", base.Add(-time.Hour), base.Add(-time.Second)),
		"VALID":   vehicleWithTag(2, "KA01AB0002", "VALID", base.Add(-time.Hour), base.Add(time.Second)),
	}}
	pool := newFakeSlotPool(1)
	svc := newTestService(dir, pool, newFakeLedger(), &fakeCharges{}, func() time.Time { return base })

	if _, err := svc.Entry(context.Background(), "EXPIRED"); !errors.Is(err, models.ErrCredentialExpired) {
		t.Fatalf("expected CredentialExpired, got %v", err)
	}
	if _, err := svc.Entry(context.Background(), "VALID"); err != nil {
		t.Fatalf("expected entry to succeed one second before expiry, got %v", err)
	}
}

func TestEntryWithoutCredential(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"KA01AB0001": {vehicle: &models.Vehicle{ID: 1, PlateNumber: "KA01AB0001"}},
	}}
	svc := newTestService(dir, newFakeSlotPool(1), newFakeLedger(), &fakeCharges{}, func() time.Time { return base })

	if _, err := svc.Entry(context.Background(), "KA01AB0001"); !errors.Is(err, models.ErrNoCredential) {
		t.Fatalf("expected NoCredential, got %v", err)
	}
	if _, err := svc.Entry(context.Background(), "UNKNOWN"); !errors.Is(err, models.ErrUnknownCredential) {
		t.Fatalf("expected UnknownCredential, got %v", err)
	}
}

func TestCompensatingReleaseOnLedgerFailure(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	pool := newFakeSlotPool(1)
	ledger := newFakeLedger()
	ledger.openErr = errors.New("ledger down")
	svc := newTestService(dir, pool, ledger, &fakeCharges{}, func() time.Time { return base })

	if _, err := svc.Entry(context.Background(), "TAG-1"); err == nil {
		t.Fatalf("expected entry to fail")
	}
	if pool.status(1) != models.SlotAvailable {
		t.Fatalf("expected compensating release to restore slot, got %s", pool.status(1))
	}
}

func TestEntryRetryBudgetExhausted(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	pool := newFakeSlotPool(1)
	ledger := newFakeLedger()
	ledger.conflicts = 100
	svc := newTestService(dir, pool, ledger, &fakeCharges{}, func() time.Time { return base })

	_, err := svc.Entry(context.Background(), "TAG-1")
	if !errors.Is(err, models.ErrBusy) {
		t.Fatalf("expected Busy after retry budget, got %v", err)
	}
	if pool.allocationCount() != entryRetryBudget+1 {
		t.Fatalf("expected %d allocation attempts, got %d", entryRetryBudget+1, pool.allocationCount())
	}
	if pool.status(1) != models.SlotAvailable {
		t.Fatalf("expected slot released after failed retries, got %s", pool.status(1))
	}
}

func TestEntryRetrySucceedsAfterTransientConflict(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	pool := newFakeSlotPool(1)
	ledger := newFakeLedger()
	ledger.conflicts = 2
	svc := newTestService(dir, pool, ledger, &fakeCharges{}, func() time.Time { return base })

	session, err := svc.Entry(context.Background(), "TAG-1")
	if err != nil {
		t.Fatalf("expected entry to succeed after transient conflicts, got %v", err)
	}
	if session == nil || session.SlotID != 1 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if pool.status(1) != models.SlotOccupied {
		t.Fatalf("expected slot occupied after successful retry")
	}
}

func TestExitNotParked(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	svc := newTestService(dir, newFakeSlotPool(1), newFakeLedger(), &fakeCharges{}, func() time.Time { return base })

	if _, _, err := svc.Exit(context.Background(), "TAG-1", ""); !errors.Is(err, models.ErrNotParked) {
		t.Fatalf("expected NotParked, got %v", err)
	}
}

func TestExitSurfacesSlotInconsistency(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	pool := newFakeSlotPool(1)
	ledger := newFakeLedger()
	charges := &fakeCharges{}
	svc := newTestService(dir, pool, ledger, charges, func() time.Time { return base })

	if _, err := svc.Entry(context.Background(), "TAG-1"); err != nil {
		t.Fatalf("entry: %v", err)
	}

	// Corrupt the pool behind the ledger's back.
	pool.forceAvailable(1)

	_, _, err := svc.Exit(context.Background(), "TAG-1", "")
	if !errors.Is(err, models.ErrSlotNotOccupied) {
		t.Fatalf("expected slot inconsistency to surface, got %v", err)
	}
	if charges.count() != 0 {
		t.Fatalf("expected no charge after failed exit, got %d", charges.count())
	}
}

func TestStatusQuery(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	svc := newTestService(dir, newFakeSlotPool(1), newFakeLedger(), &fakeCharges{}, func() time.Time { return base })

	status, err := svc.Status(context.Background(), "TAG-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Parked {
		t.Fatalf("expected not parked before entry")
	}

	if _, err := svc.Entry(context.Background(), "TAG-1"); err != nil {
		t.Fatalf("entry: %v", err)
	}

	status, err = svc.Status(context.Background(), "TAG-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Parked || status.Session == nil {
		t.Fatalf("expected parked with session, got %+v", status)
	}
	if status.Session.VehicleID != 1 {
		t.Fatalf("expected session for vehicle 1, got %d", status.Session.VehicleID)
	}
}

func TestEntryCancelledBetweenAllocateAndOpen(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{entries: map[string]dirEntry{
		"TAG-1": vehicleWithTag(1, "KA01AB1234", "TAG-1", base.Add(-time.Hour), base.Add(24*time.Hour)),
	}}
	pool := newFakeSlotPool(1)
	ledger := newFakeLedger()
	ledger.openErr = context.Canceled
	svc := newTestService(dir, pool, ledger, &fakeCharges{}, func() time.Time { return base })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Entry(ctx, "TAG-1"); err == nil {
		t.Fatalf("expected entry to fail on cancelled context")
	}
	if pool.status(1) != models.SlotAvailable {
		t.Fatalf("expected slot released despite cancellation, got %s", pool.status(1))
	}
}
