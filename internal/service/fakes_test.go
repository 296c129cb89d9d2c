package service

import (
	"context"
	"errors"
	"sync"

	"chamberctl/internal/models"
)

// memStore is an in-memory StateRepo.
type memStore struct {
	mu      sync.Mutex
	rec     models.PersistedRecord
	found   bool
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Save(_ context.Context, s models.OperatingState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rec, m.found = s.Record(), true
	m.saves++
	return nil
}

func (m *memStore) Load(context.Context) (models.PersistedRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec, m.found, m.loadErr
}

type fakeActuator struct {
	on     bool
	writes int
	err    error
}

func (f *fakeActuator) Set(on bool) error {
	if f.err != nil {
		return f.err
	}
	f.on = on
	f.writes++
	return nil
}

type fakeSensor struct {
	readings []models.Measurement
	err      error
	calls    int
}

func (f *fakeSensor) Read(context.Context) (models.Measurement, error) {
	f.calls++
	if f.err != nil {
		return models.Measurement{}, f.err
	}
	if len(f.readings) == 0 {
		return models.Measurement{}, errors.New("no reading queued")
	}
	m := f.readings[0]
	if len(f.readings) > 1 {
		f.readings = f.readings[1:]
	}
	return m, nil
}

type fakeButton struct{ presses []bool }

func (f *fakeButton) Pressed() bool {
	if len(f.presses) == 0 {
		return false
	}
	p := f.presses[0]
	f.presses = f.presses[1:]
	return p
}

type sentMessage struct{ channel, text string }

type fakeChat struct {
	batches [][]models.Update
	pollErr error
	polls   []int64
	sent    []sentMessage
}

func (f *fakeChat) Poll(_ context.Context, after int64) ([]models.Update, error) {
	f.polls = append(f.polls, after)
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeChat) Send(_ context.Context, channel, text string) error {
	f.sent = append(f.sent, sentMessage{channel, text})
	return nil
}

type fakeTrigger struct {
	busy  bool
	calls int
}

func (f *fakeTrigger) Trigger() bool {
	f.calls++
	return !f.busy
}

// rig is a chamber wired to fakes.
type rig struct {
	store   *memStore
	display *fakeDisplay
	fan     *fakeActuator
	hum     *fakeActuator
	link    *fakeLink
	chamber *Chamber
}

func newRig() *rig {
	r := &rig{
		store:   &memStore{},
		display: &fakeDisplay{},
		fan:     &fakeActuator{},
		hum:     &fakeActuator{},
		link:    &fakeLink{up: true},
	}
	r.chamber = NewChamber(r.store, NewDisplayScheduler(r.display, 100, 10), r.fan, r.hum, r.link, nil)
	return r
}
