package services

import "sync"

// TournamentLocks serializes mutating operations per tournament aggregate.
// Registration's check-and-append, registration closure, and winner
// propagation all run under the owning tournament's lock so capacity and
// single-generation invariants cannot be broken by racing requests.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[int]*sync.Mutex)}
}

func (l *TournamentLocks) get(tournamentID int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[tournamentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tournamentID] = m
	}
	return m
}

// Lock acquires the mutex for one tournament and returns the unlock func.
func (l *TournamentLocks) Lock(tournamentID int) func() {
	m := l.get(tournamentID)
	m.Lock()
	return m.Unlock
}
