package linecollector

import (
	"container/list"
	"log/slog"
	"sync"
)

// scheduler round-robins Getline attempts across every tracked file so a
// single saturated producer never starves the others.
type scheduler struct {
	available *list.List
	cursor    *list.Element
	index     map[string]*list.Element
	mu        sync.Mutex
	running   map[string]bool
}

func newScheduler() *scheduler {
	return &scheduler{
		available: list.New(),
		running:   make(map[string]bool),
		index:     make(map[string]*list.Element),
	}
}

func (s *scheduler) add(t *tail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[t.fileID]; exists {
		slog.Debug("file already scheduled", "id", t.fileID)
		return
	}
	elem := s.available.PushBack(t)
	s.index[t.fileID] = elem
	if s.cursor == nil {
		s.cursor = s.available.Front()
	}
}

// remove drops id from the rotation and returns the tail it held, or nil
// if id was not scheduled.
func (s *scheduler) remove(id string) *tail {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.index[id]
	if !exists {
		return nil
	}
	t, _ := elem.Value.(*tail)
	s.available.Remove(elem)
	delete(s.index, id)
	delete(s.running, id)

	if s.cursor == elem {
		s.cursor = elem.Next()
		if s.cursor == nil {
			s.cursor = s.available.Front()
		}
	}
	return t
}

func (s *scheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available.Len()
}

func (s *scheduler) setIdle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; ok {
		s.running[id] = false
	}
}

func (s *scheduler) next() (*tail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.available.Len() == 0 {
		return nil, false
	}

	start := s.cursor
	for {
		if s.cursor == nil {
			s.cursor = s.available.Front()
		}
		if t, ok := s.cursor.Value.(*tail); ok {
			if running, exists := s.running[t.fileID]; !exists || !running {
				s.running[t.fileID] = true
				s.cursor = s.cursor.Next()
				return t, true
			}
		}
		s.cursor = s.cursor.Next()
		if s.cursor == start {
			break
		}
	}
	return nil, false
}
