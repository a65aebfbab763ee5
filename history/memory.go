package history

import (
	"context"
	"sync"

	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
)

// MemoryStore keeps everything in process. Useful for tests and one-shot CLI runs.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*microtask.PatientProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: map[string]*microtask.PatientProfile{}}
}

func (m *MemoryStore) Profile(_ context.Context, patientID string) (microtask.PatientProfile, error) {
	if err := checkPatient(patientID); err != nil {
		return microtask.PatientProfile{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := emptyProfile()
	p, ok := m.profiles[patientID]
	if !ok {
		return out, nil
	}
	for c, v := range p.RiskFlags {
		out.RiskFlags[c] = v
	}
	out.History = append(out.History, p.History...)
	return out, nil
}

func (m *MemoryStore) SetRiskFlags(_ context.Context, patientID string, flags map[indicators.Condition]bool) error {
	if err := checkFlags(patientID, flags); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.get(patientID)
	for c, v := range flags {
		p.RiskFlags[c] = v
	}
	return nil
}

func (m *MemoryStore) RecordCompletion(_ context.Context, patientID, taskID string, period int) error {
	if err := checkCompletion(patientID, taskID, period); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.get(patientID)
	p.History = append(p.History, microtask.Completion{TaskID: taskID, Period: period})
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// get must be called with the write lock held.
func (m *MemoryStore) get(patientID string) *microtask.PatientProfile {
	p, ok := m.profiles[patientID]
	if !ok {
		e := emptyProfile()
		p = &e
		m.profiles[patientID] = p
	}
	return p
}
