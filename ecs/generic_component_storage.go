package ecs

import (
	"iter"
	"reflect"
)

// ComponentRegistry maps component types to storage factories.
// Each Storage owns one registry, so independent worlds never share column layouts.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers T with the registry.
// Every component type must be registered before an entity carrying it is spawned.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	r.factories[t] = func() iComponentStorage {
		return &genericComponentStorage[T]{}
	}
}

// Registered reports whether the type has been registered.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

const genericBlockSize = 64

// genericComponentStorage stores components of type T in fixed-size blocks so that
// pointers handed out by Get stay valid while the column grows.
type genericComponentStorage[T any] struct {
	blocks    []*[genericBlockSize]T
	filled    []*[genericBlockSize]bool
	freeSlots []int
	nextIndex int
	count     int
}

func (cs *genericComponentStorage[T]) slot(index int) (int, int, bool) {
	if index < 0 {
		return 0, 0, false
	}
	blockIdx := index / genericBlockSize
	if blockIdx >= len(cs.blocks) {
		return 0, 0, false
	}
	return blockIdx, index % genericBlockSize, true
}

// Append adds a component and returns its slot index, or -1 for a value of the wrong type.
func (cs *genericComponentStorage[T]) Append(item any) int {
	var value T
	switch v := item.(type) {
	case *T:
		value = *v
	case T:
		value = v
	default:
		return -1
	}

	var index int
	if n := len(cs.freeSlots); n > 0 {
		index = cs.freeSlots[n-1]
		cs.freeSlots = cs.freeSlots[:n-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
		if index/genericBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new([genericBlockSize]T))
			cs.filled = append(cs.filled, new([genericBlockSize]bool))
		}
	}

	blockIdx, slotIdx, _ := cs.slot(index)
	cs.blocks[blockIdx][slotIdx] = value
	cs.filled[blockIdx][slotIdx] = true
	cs.count++
	return index
}

// Get returns a *T for the slot, or nil when the slot is empty.
func (cs *genericComponentStorage[T]) Get(index int) any {
	blockIdx, slotIdx, ok := cs.slot(index)
	if !ok || !cs.filled[blockIdx][slotIdx] {
		return nil
	}
	return &cs.blocks[blockIdx][slotIdx]
}

// Delete zeroes the slot and queues it for reuse.
func (cs *genericComponentStorage[T]) Delete(index int) {
	blockIdx, slotIdx, ok := cs.slot(index)
	if !ok || !cs.filled[blockIdx][slotIdx] {
		return
	}
	var zero T
	cs.blocks[blockIdx][slotIdx] = zero
	cs.filled[blockIdx][slotIdx] = false
	cs.freeSlots = append(cs.freeSlots, index)
	cs.count--
}

func (cs *genericComponentStorage[T]) Has(index int) bool {
	blockIdx, slotIdx, ok := cs.slot(index)
	return ok && cs.filled[blockIdx][slotIdx]
}

func (cs *genericComponentStorage[T]) Len() int {
	return cs.count
}

func (cs *genericComponentStorage[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			if !cs.filled[i/genericBlockSize][i%genericBlockSize] {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}
