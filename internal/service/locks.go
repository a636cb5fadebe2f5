package service

import "sync"

// vehicleLocks hands out one mutex per vehicle so entry and exit for the
// same vehicle serialize while different vehicles proceed in parallel.
// Entries are never evicted; the map is bounded by the registered fleet.
type vehicleLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newVehicleLocks() *vehicleLocks {
	return &vehicleLocks{locks: make(map[int64]*sync.Mutex)}
}

func (vl *vehicleLocks) get(vehicleID int64) *sync.Mutex {
	vl.mu.Lock()
	defer vl.mu.Unlock()

	m, ok := vl.locks[vehicleID]
	if !ok {
		m = &sync.Mutex{}
		vl.locks[vehicleID] = m
	}
	return m
}
