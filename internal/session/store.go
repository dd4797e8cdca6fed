package session

import (
	"sort"
	"time"
)

// Store owns the AgentState of every tracked session. It is mutated only by
// the monitor's tick; readers get copies from Get and GetAll.
type Store struct {
	agents map[uint32]*AgentState
}

func NewStore() *Store {
	return &Store{
		agents: make(map[uint32]*AgentState),
	}
}

// Add creates a Waiting agent for a newly tracked session. An existing agent
// with the same id is replaced.
func (s *Store) Add(id uint32, sessionFile string, now time.Time) {
	s.agents[id] = NewAgentState(id, sessionFile, now)
}

// Remove deletes the agent and returns the session file it was reading.
func (s *Store) Remove(id uint32) (string, bool) {
	a, ok := s.agents[id]
	if !ok {
		return "", false
	}
	delete(s.agents, id)
	return a.SessionFile, true
}

// Apply folds events into the agent with the given id, in order. It reports
// false if the agent is unknown.
func (s *Store) Apply(id uint32, events []Event, now time.Time) bool {
	a, ok := s.agents[id]
	if !ok {
		return false
	}
	for _, ev := range events {
		a.Apply(ev, now)
	}
	return true
}

// SweepDormant moves every non-dormant agent that has been silent for at
// least timeout to Dormant and returns their ids in ascending order.
func (s *Store) SweepDormant(now time.Time, timeout time.Duration) []uint32 {
	var changed []uint32
	for id, a := range s.agents {
		if a.Status != Dormant && a.IsDormant(now, timeout) {
			a.Status = Dormant
			changed = append(changed, id)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	return changed
}

func (s *Store) Get(id uint32) (*AgentState, bool) {
	a, ok := s.agents[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// GetAll returns copies of all agents ordered by id.
func (s *Store) GetAll() []*AgentState {
	result := make([]*AgentState, 0, len(s.agents))
	for _, id := range s.SortedIDs() {
		result = append(result, s.agents[id].Clone())
	}
	return result
}

// SortedIDs returns the ids of all tracked agents in ascending order.
func (s *Store) SortedIDs() []uint32 {
	ids := make([]uint32, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) Contains(id uint32) bool {
	_, ok := s.agents[id]
	return ok
}

func (s *Store) Len() int { return len(s.agents) }

// CurrentToolDisplay returns the label of the agent's most recently started
// active tool.
func (s *Store) CurrentToolDisplay(id uint32) (string, bool) {
	a, ok := s.agents[id]
	if !ok {
		return "", false
	}
	return a.CurrentToolDisplay()
}

// Activity returns the rendering classification for an agent. Unknown ids
// are Idle.
func (s *Store) Activity(id uint32) Activity {
	a, ok := s.agents[id]
	if !ok {
		return Idle
	}
	return a.Activity()
}

// ActiveCount returns the number of agents currently mid-turn.
func (s *Store) ActiveCount() int {
	count := 0
	for _, a := range s.agents {
		if a.Status == Active {
			count++
		}
	}
	return count
}
