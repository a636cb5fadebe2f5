package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parkwise/internal/cache"
	"parkwise/internal/models"
	"parkwise/internal/ws"
)

// Retries after a lost race on the ledger before giving up with ErrBusy.
const entryRetryBudget = 3

// CredentialDirectory resolves a scanned credential (tag UID or plate) to a
// vehicle and its credential, if one is bound.
type CredentialDirectory interface {
	Resolve(ctx context.Context, ref string) (*models.Vehicle, *models.Credential, error)
}

// SlotPool allocates and releases physical slots. Allocate must be atomic
// with respect to concurrent calls.
type SlotPool interface {
	Allocate(ctx context.Context) (*models.Slot, error)
	Release(ctx context.Context, slotID int64) error
	GetByID(ctx context.Context, slotID int64) (*models.Slot, error)
}

// SessionLedger records parked intervals, at most one open per vehicle.
type SessionLedger interface {
	Open(ctx context.Context, vehicleID, slotID int64, at time.Time) (*models.Session, error)
	Close(ctx context.Context, vehicleID int64, at time.Time) (*models.Session, error)
	FindOpen(ctx context.Context, vehicleID int64) (*models.Session, error)
}

// ChargeRecorder hands priced sessions to the payment collaborator.
type ChargeRecorder interface {
	Record(ctx context.Context, c *models.Charge) error
}

// ParkedStatus is the answer to a status query.
type ParkedStatus struct {
	Parked  bool            `json:"parked"`
	Session *models.Session `json:"session,omitempty"`
}

// ParkingService coordinates entry and exit transactions across the
// credential directory, the slot pool, the session ledger and the charge
// recorder. The occupancy cache and the event hub are optional.
type ParkingService struct {
	directory CredentialDirectory
	slots     SlotPool
	ledger    SessionLedger
	charges   ChargeRecorder
	occupancy *cache.OccupancyStore
	hub       *ws.Hub
	locks     *vehicleLocks
	clock     func() time.Time
	logger    *zap.Logger
}

// NewParkingService builds the coordinator. clock may be nil, in which case
// time.Now is used; tests inject a fixed clock.
func NewParkingService(
	directory CredentialDirectory,
	slots SlotPool,
	ledger SessionLedger,
	charges ChargeRecorder,
	occupancy *cache.OccupancyStore,
	hub *ws.Hub,
	clock func() time.Time,
	logger *zap.Logger,
) *ParkingService {
	if clock == nil {
		clock = time.Now
	}
	return &ParkingService{
		directory: directory,
		slots:     slots,
		ledger:    ledger,
		charges:   charges,
		occupancy: occupancy,
		hub:       hub,
		locks:     newVehicleLocks(),
		clock:     clock,
		logger:    logger,
	}
}

// Entry admits the vehicle behind the credential: validates the credential,
// claims a slot and opens a session. On a lost race against a concurrent
// entry the allocated slot is handed back and the attempt repeats up to the
// retry budget.
func (s *ParkingService) Entry(ctx context.Context, credential string) (*models.Session, error) {
	vehicle, cred, err := s.directory.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	if cred == nil {
		return nil, models.ErrNoCredential
	}
	if !cred.ValidAt(now) {
		return nil, models.ErrCredentialExpired
	}

	mu := s.locks.get(vehicle.ID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; ; attempt++ {
		open, err := s.ledger.FindOpen(ctx, vehicle.ID)
		if err != nil {
			return nil, err
		}
		if open != nil {
			return nil, models.ErrAlreadyParked
		}

		session, slot, err := s.claimAndOpen(ctx, vehicle.ID, now)
		if err != nil {
			if errors.Is(err, models.ErrSessionConflict) {
				if attempt < entryRetryBudget {
					continue
				}
				s.logger.Warn("entry retry budget exhausted",
					zap.Int64("vehicle_id", vehicle.ID),
					zap.Int("attempts", attempt+1),
				)
				return nil, models.ErrBusy
			}
			return nil, err
		}

		session.PlateNumber = vehicle.PlateNumber
		session.SlotNo = slot.SlotNo
		session.RatePerHour = slot.RatePerHour

		s.cacheOccupancy(ctx, vehicle, session)
		s.broadcast(ws.EventEntry, session, now)
		s.logger.Info("vehicle parked",
			zap.String("plate", vehicle.PlateNumber),
			zap.String("slot", slot.SlotNo),
			zap.Int64("session_id", session.ID),
		)
		return session, nil
	}
}

// claimAndOpen allocates a slot and opens the session. The deferred release
// runs on a non-cancelable context so the slot is handed back even when the
// caller is cancelled between allocation and session creation.
func (s *ParkingService) claimAndOpen(ctx context.Context, vehicleID int64, now time.Time) (*models.Session, *models.Slot, error) {
	slot, err := s.slots.Allocate(ctx)
	if err != nil {
		return nil, nil, err
	}

	opened := false
	defer func() {
		if opened {
			return
		}
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.slots.Release(releaseCtx, slot.ID); err != nil {
			s.logger.Error("compensating slot release failed",
				zap.Int64("slot_id", slot.ID),
				zap.Error(err),
			)
		}
	}()

	session, err := s.ledger.Open(ctx, vehicleID, slot.ID, now)
	if err != nil {
		return nil, nil, err
	}
	opened = true
	return session, slot, nil
}

// Exit closes the vehicle's session, frees its slot, prices the stay and
// records the charge. Credential expiry is not checked on the way out.
func (s *ParkingService) Exit(ctx context.Context, credential, method string) (*models.Session, *models.Charge, error) {
	vehicle, _, err := s.directory.Resolve(ctx, credential)
	if err != nil {
		return nil, nil, err
	}

	mu := s.locks.get(vehicle.ID)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock().UTC()
	session, err := s.ledger.Close(ctx, vehicle.ID, now)
	if err != nil {
		return nil, nil, err
	}

	if err := s.slots.Release(ctx, session.SlotID); err != nil {
		if errors.Is(err, models.ErrSlotNotOccupied) {
			// The ledger says the slot was in use but the pool disagrees.
			s.logger.Error("slot pool and ledger diverged on release",
				zap.Int64("slot_id", session.SlotID),
				zap.Int64("session_id", session.ID),
			)
			return nil, nil, fmt.Errorf("release slot %d for session %d: %w", session.SlotID, session.ID, err)
		}
		return nil, nil, err
	}

	slot, err := s.slots.GetByID(ctx, session.SlotID)
	if err != nil {
		return nil, nil, err
	}

	amount, minutes := Price(session.EntryTime, *session.ExitTime, slot.RatePerHour)
	session.DurationMinutes = minutes
	session.PlateNumber = vehicle.PlateNumber
	session.SlotNo = slot.SlotNo
	session.RatePerHour = slot.RatePerHour

	if method == "" {
		method = "cash"
	}
	charge := &models.Charge{
		SessionID:       session.ID,
		Amount:          amount,
		DurationMinutes: minutes,
		Method:          method,
	}
	if err := s.charges.Record(ctx, charge); err != nil {
		return nil, nil, err
	}

	s.dropOccupancy(ctx, vehicle.PlateNumber)
	s.broadcast(ws.EventExit, session, now)
	s.logger.Info("vehicle exited",
		zap.String("plate", vehicle.PlateNumber),
		zap.Int64("session_id", session.ID),
		zap.Int64("duration_minutes", minutes),
		zap.Float64("amount", amount),
	)
	return session, charge, nil
}

// Status answers whether the vehicle behind ref is parked. It reads the
// occupancy cache first and falls back to the ledger; it never takes the
// vehicle lock, so queries cannot block transactions.
func (s *ParkingService) Status(ctx context.Context, ref string) (*ParkedStatus, error) {
	vehicle, _, err := s.directory.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if s.occupancy != nil {
		occ, err := s.occupancy.Get(ctx, vehicle.PlateNumber)
		if err == nil {
			return &ParkedStatus{
				Parked: true,
				Session: &models.Session{
					ID:          occ.SessionID,
					VehicleID:   occ.VehicleID,
					SlotID:      occ.SlotID,
					EntryTime:   occ.EntryTime,
					PlateNumber: occ.Plate,
					SlotNo:      occ.SlotNo,
				},
			}, nil
		}
		if err != redis.Nil {
			s.logger.Warn("occupancy cache read failed", zap.Error(err))
		}
	}

	open, err := s.ledger.FindOpen(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return &ParkedStatus{Parked: false}, nil
	}
	return &ParkedStatus{Parked: true, Session: open}, nil
}

func (s *ParkingService) cacheOccupancy(ctx context.Context, vehicle *models.Vehicle, session *models.Session) {
	if s.occupancy == nil {
		return
	}
	err := s.occupancy.Save(ctx, cache.Occupancy{
		SessionID: session.ID,
		VehicleID: vehicle.ID,
		Plate:     vehicle.PlateNumber,
		SlotID:    session.SlotID,
		SlotNo:    session.SlotNo,
		EntryTime: session.EntryTime,
	})
	if err != nil && err != redis.Nil {
		s.logger.Warn("failed to cache occupancy", zap.Error(err))
	}
}

func (s *ParkingService) dropOccupancy(ctx context.Context, plate string) {
	if s.occupancy == nil {
		return
	}
	if err := s.occupancy.Delete(ctx, plate); err != nil && err != redis.Nil {
		s.logger.Warn("failed to drop occupancy cache", zap.Error(err))
	}
}

func (s *ParkingService) broadcast(eventType string, session *models.Session, at time.Time) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ws.Event{
		Type:      eventType,
		SessionID: session.ID,
		Plate:     session.PlateNumber,
		SlotNo:    session.SlotNo,
		At:        at,
	})
}
