package runtime

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"fmt"
	"slices"
	"sync"
)

// SessionPool tracks which of the N slots may take new work.
// Free slots are handed out in release order.
type SessionPool struct {
	mu     sync.Mutex
	states []domain.SlotState
	free   []domain.SlotID
}

// NewSessionPool builds a pool of size slots. Slots listed in held start Held.
func NewSessionPool(size int, held []domain.SlotID) *SessionPool {
	p := &SessionPool{states: make([]domain.SlotState, size+1)}
	for slot := domain.SlotID(1); int(slot) <= size; slot++ {
		if slices.Contains(held, slot) {
			p.states[slot] = domain.Held
			continue
		}
		p.free = append(p.free, slot)
	}
	return p
}

func (p *SessionPool) Size() int {
	return len(p.states) - 1
}

// Acquire marks the oldest free slot Busy.
func (p *SessionPool) Acquire() (domain.SlotID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return 0, errors.ErrNoFreeSlots
	}
	slot := p.free[0]
	p.free = p.free[1:]
	p.states[slot] = domain.Busy
	return slot, nil
}

// AcquireSlot marks a given Free or Held slot Busy and returns the state it had.
// Held slots are taken this way to resume or drop their transfer.
func (p *SessionPool) AcquireSlot(slot domain.SlotID) (domain.SlotState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.check(slot); err != nil {
		return 0, err
	}
	prior := p.states[slot]
	switch prior {
	case domain.Busy:
		return prior, fmt.Errorf("%w: %d", errors.ErrSlotBusy, slot)
	case domain.Free:
		p.free = slices.DeleteFunc(p.free, func(s domain.SlotID) bool { return s == slot })
	}
	p.states[slot] = domain.Busy
	return prior, nil
}

// Release returns a Busy or Held slot to the free queue.
func (p *SessionPool) Release(slot domain.SlotID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.check(slot); err != nil {
		return err
	}
	if p.states[slot] == domain.Free {
		return fmt.Errorf("%w: %d", errors.ErrSlotAlreadyFree, slot)
	}
	p.states[slot] = domain.Free
	p.free = append(p.free, slot)
	return nil
}

// Hold parks a Busy slot until its pending recovery is resolved.
func (p *SessionPool) Hold(slot domain.SlotID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.check(slot); err != nil {
		return err
	}
	if p.states[slot] == domain.Free {
		return fmt.Errorf("%w: %d", errors.ErrSlotAlreadyFree, slot)
	}
	p.states[slot] = domain.Held
	return nil
}

func (p *SessionPool) State(slot domain.SlotID) (domain.SlotState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.check(slot); err != nil {
		return 0, err
	}
	return p.states[slot], nil
}

// Drained remembers what Drain took so that Undrain can give it back.
type Drained struct {
	Free []domain.SlotID
	Held []domain.SlotID
}

// Drain marks every slot Busy at once, held ones included, so that no transfer or recovery can start.
// It fails when a transfer is already running.
func (p *SessionPool) Drain() (Drained, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.Contains(p.states[1:], domain.Busy) {
		return Drained{}, errors.ErrTransfersInProgress
	}
	drained := Drained{Free: p.free}
	p.free = nil
	for slot := 1; slot < len(p.states); slot++ {
		if p.states[slot] == domain.Held {
			drained.Held = append(drained.Held, domain.SlotID(slot))
		}
		p.states[slot] = domain.Busy
	}
	return drained, nil
}

// Undrain restores the slots taken by Drain, free ones in their previous queue order.
func (p *SessionPool) Undrain(d Drained) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, slot := range d.Held {
		p.states[slot] = domain.Held
	}
	for _, slot := range d.Free {
		p.states[slot] = domain.Free
	}
	p.free = append(p.free, d.Free...)
}

func (p *SessionPool) Snapshot() []domain.SlotStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]domain.SlotStatus, 0, len(p.states)-1)
	for slot := 1; slot < len(p.states); slot++ {
		statuses = append(statuses, domain.SlotStatus{Slot: domain.SlotID(slot), State: p.states[slot]})
	}
	return statuses
}

func (p *SessionPool) check(slot domain.SlotID) error {
	if slot < 1 || int(slot) >= len(p.states) {
		return fmt.Errorf("%w: %d not in 1..%d", errors.ErrSlotOutOfRange, slot, len(p.states)-1)
	}
	return nil
}
