package ecs

import (
	"reflect"
	"sort"
	"unsafe"
	"weak"

	"github.com/cespare/xxhash/v2"
)

// Storage owns every archetype and singleton of one world.
type Storage struct {
	archetypes map[uint32]*Archetype
	singletons map[reflect.Type]*singletonEntry
	registry   *ComponentRegistry
}

// singletonEntry keeps a singleton value boxed on the heap so pointers to it stay stable.
type singletonEntry struct {
	value   reflect.Value
	dataPtr unsafe.Pointer
}

// NewStorage creates a new ECS storage with the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		archetypes: make(map[uint32]*Archetype),
		singletons: make(map[reflect.Type]*singletonEntry),
		registry:   registry,
	}
}

// Registry returns the registry the storage was created with.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// CreateEntityRef returns the shared EntityRef for id, creating it on first use.
func (s *Storage) CreateEntityRef(id EntityId) *EntityRef {
	archetype := s.archetypes[id.ArchetypeId()]
	if archetype == nil {
		return nil
	}

	if weakPtr, ok := archetype.refs.Get(id); ok {
		if ref := weakPtr.Value(); ref != nil {
			return ref
		}
		archetype.refs.Del(id)
	}

	ref := &EntityRef{
		Id:        id,
		Archetype: archetype,
	}
	archetype.refs.Put(id, weak.Make(ref))

	return ref
}

// ResolveEntityRef returns the current id behind ref, or false if the entity is gone.
func (s *Storage) ResolveEntityRef(ref *EntityRef) (EntityId, bool) {
	if !ref.Valid() {
		return 0, false
	}
	return ref.Id, true
}

// Spawn creates a new entity with the provided components
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	types := extractComponentTypes(components)
	archetypeId := hashTypesToUint32(types)

	archetype, exists := s.archetypes[archetypeId]
	if !exists {
		archetype = NewArchetype(archetypeId, types, s.registry)
		s.archetypes[archetypeId] = archetype
	}

	entityIndex := archetype.Spawn(components)
	return NewEntityId(archetypeId, entityIndex)
}

// Delete removes all data related to the entity ID
func (s *Storage) Delete(id EntityId) {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return
	}
	archetype.Delete(id.Index())
}

// GetComponent returns a pointer to the entity's component of compType, or nil.
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return nil
	}
	return archetype.GetComponent(id.Index(), compType)
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return false
	}
	return archetype.HasComponent(compType)
}

// Archetypes returns the archetypes ordered by ID.
func (s *Storage) Archetypes() []*Archetype {
	out := make([]*Archetype, 0, len(s.archetypes))
	for _, a := range s.archetypes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// AddSingleton stores value as the world's single instance of its type, replacing any previous one.
// Singletons need no registration.
func (s *Storage) AddSingleton(value any) {
	t := reflect.TypeOf(value)
	if t == nil {
		panic("cannot add nil singleton")
	}

	boxed := reflect.New(t)
	boxed.Elem().Set(reflect.ValueOf(value))

	if entry, ok := s.singletons[t]; ok {
		// Keep the address handed out to existing Singleton accessors.
		entry.value.Elem().Set(boxed.Elem())
		return
	}

	s.singletons[t] = &singletonEntry{
		value:   boxed,
		dataPtr: boxed.UnsafePointer(),
	}
}

func (s *Storage) getSingletonEntry(t reflect.Type) *singletonEntry {
	return s.singletons[t]
}

// ReadSingleton points *target at the singleton of type T and reports whether it exists.
//
//	var clock *Clock
//	if storage.ReadSingleton(&clock) { ... }
func (s *Storage) ReadSingleton(target any) bool {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Ptr {
		panic("ReadSingleton target must be a pointer to a pointer")
	}

	entry := s.singletons[ptr.Elem().Type().Elem()]
	if entry == nil {
		return false
	}
	ptr.Elem().Set(entry.value)
	return true
}

// extractComponentTypes extracts and sorts component types from a slice of components
func extractComponentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		compType := reflect.TypeOf(comp)
		if compType.Kind() == reflect.Ptr {
			compType = compType.Elem()
		}

		switch compType.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
			panic("components cannot be pointers, maps, channels, or functions")
		}

		types = append(types, compType)
	}
	sort.Sort(byTypeName(types))
	return types
}

// hashTypesToUint32 hashes a sorted slice of types by their names, so an archetype
// gets the same id in every process and archetype iteration order is reproducible.
func hashTypesToUint32(types []reflect.Type) uint32 {
	d := xxhash.New()
	for _, t := range types {
		_, _ = d.WriteString(t.PkgPath())
		_, _ = d.WriteString(".")
		_, _ = d.WriteString(t.String())
		_, _ = d.WriteString("\x00")
	}
	sum := d.Sum64()
	return uint32(sum) ^ uint32(sum>>32)
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent is a typed GetComponent. It returns nil when the entity lacks T.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return comp
}
