// Package courselock hands out one mutex per course. Every service that
// saves the course aggregate locks through the same registry, so
// read-modify-write cycles on one course serialize while different
// courses stay independent.
package courselock

import (
	"sync"

	"github.com/google/uuid"
)

type Registry struct {
	locks sync.Map // course id -> *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Of(courseID uuid.UUID) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(courseID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
