package services

import (
	"sync"
	"time"

	"PosTerminal/app/models"

	"github.com/google/uuid"
)

// DefaultToastTTL is how long a toast stays visible
const DefaultToastTTL = 3000 * time.Millisecond

// ToastService is the self-expiring notification queue
type ToastService struct {
	mu        sync.Mutex
	ttl       time.Duration
	toasts    []models.Toast
	timers    map[string]*time.Timer
	listeners []func([]models.Toast)
	closed    bool
}

// NewToastService creates a queue whose toasts expire after ttl
func NewToastService(ttl time.Duration) *ToastService {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return &ToastService{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// SetTTL changes the lifetime of toasts pushed from now on
func (s *ToastService) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.ttl = ttl
	s.mu.Unlock()
}

// OnChange registers fn to receive the queue after every change
func (s *ToastService) OnChange(fn func([]models.Toast)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Push appends a toast and schedules its removal
func (s *ToastService) Push(kind models.ToastKind, message string) models.Toast {
	toast := models.Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return toast
	}
	s.toasts = append(s.toasts, toast)
	id := toast.ID
	s.timers[id] = time.AfterFunc(s.ttl, func() { s.expire(id) })
	s.mu.Unlock()

	s.notify()
	return toast
}

// Success pushes a success toast
func (s *ToastService) Success(message string) models.Toast {
	return s.Push(models.ToastSuccess, message)
}

// Danger pushes a danger toast
func (s *ToastService) Danger(message string) models.Toast {
	return s.Push(models.ToastDanger, message)
}

// Warning pushes a warning toast
func (s *ToastService) Warning(message string) models.Toast {
	return s.Push(models.ToastWarning, message)
}

// Info pushes an info toast
func (s *ToastService) Info(message string) models.Toast {
	return s.Push(models.ToastInfo, message)
}

// Dismiss removes a toast immediately
func (s *ToastService) Dismiss(id string) {
	s.mu.Lock()
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	removed := s.remove(id)
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// expire runs from the removal timer; a toast already dismissed is ignored
func (s *ToastService) expire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	removed := s.remove(id)
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// remove deletes id from the queue; callers hold mu
func (s *ToastService) remove(id string) bool {
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Toasts returns the visible toasts in insertion order
func (s *ToastService) Toasts() []models.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Toast(nil), s.toasts...)
}

// Close stops all pending timers and rejects further toasts
func (s *ToastService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.toasts = nil
	s.closed = true
}

func (s *ToastService) notify() {
	s.mu.Lock()
	snapshot := append([]models.Toast(nil), s.toasts...)
	listeners := append([]func([]models.Toast){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
