package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

var entityIdType = reflect.TypeFor[EntityId]()

// View describes a set of components read together.
// T must be a struct whose fields are pointers to component types. An EntityId
// field (embedded or named) is filled with the entity's id instead of a component.
// Named pointer fields may carry the `ecs:"optional"` tag; embedded ones are always required.
type View[T any] struct {
	storage     *Storage
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr

	hasId    bool
	idOffset uintptr
}

// NewView creates a new view for the given struct type
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{storage: storage}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type == entityIdType {
			v.hasId = true
			v.idOffset = field.Offset
			continue
		}

		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types or EntityId")
		}

		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		v.types = append(v.types, field.Type.Elem())
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
	}

	return v
}

// Get returns a populated view struct for the entity, or nil if a required component is missing.
func (v *View[T]) Get(id EntityId) *T {
	archetype, ok := v.storage.archetypes[id.ArchetypeId()]
	if !ok || !v.matchesArchetype(archetype) {
		return nil
	}

	var result T
	if !v.populateResult(unsafe.Pointer(&result), archetype, int(id.Index()), v.buildStorageIndices(archetype)) {
		return nil
	}
	return &result
}

// GetRef is Get for an EntityRef; it returns nil for invalidated refs.
func (v *View[T]) GetRef(ref *EntityRef) *T {
	id, ok := v.storage.ResolveEntityRef(ref)
	if !ok {
		return nil
	}
	return v.Get(id)
}

// matchesArchetype reports whether the archetype has every required component.
func (v *View[T]) matchesArchetype(archetype *Archetype) bool {
	for i, requiredType := range v.types {
		if v.optional[i] {
			continue
		}
		if !archetype.HasComponent(requiredType) {
			return false
		}
	}
	return true
}

func (v *View[T]) buildStorageIndices(archetype *Archetype) []int {
	storageIndices := make([]int, len(v.types))
	for i, componentType := range v.types {
		storageIndices[i] = archetype.column(componentType)
	}
	return storageIndices
}

func (v *View[T]) populateResult(resultPtr unsafe.Pointer, archetype *Archetype, entityIndex int, storageIndices []int) bool {
	for i, storageIdx := range storageIndices {
		fieldPtr := unsafe.Add(resultPtr, v.fieldOffset[i])

		var component any
		if storageIdx != -1 {
			component = archetype.storages[storageIdx].Get(entityIndex)
		}

		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}

	if v.hasId {
		*(*EntityId)(unsafe.Add(resultPtr, v.idOffset)) = NewEntityId(archetype.id, uint32(entityIndex))
	}
	return true
}

func (v *View[T]) iterArchetype(archetype *Archetype, yield func(EntityId, T) bool) bool {
	if len(archetype.storages) == 0 {
		return true
	}

	storageIndices := v.buildStorageIndices(archetype)

	var result T
	resultPtr := unsafe.Pointer(&result)

	for entityIndex := range archetype.storages[0].Iter() {
		if !v.populateResult(resultPtr, archetype, entityIndex, storageIndices) {
			continue
		}
		if !yield(NewEntityId(archetype.id, uint32(entityIndex)), result) {
			return false
		}
	}
	return true
}

// Iter yields every entity that has all required components.
// Archetypes are visited in ID order so iteration is deterministic.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, archetype := range v.storage.Archetypes() {
			if !v.matchesArchetype(archetype) {
				continue
			}
			if !v.iterArchetype(archetype, yield) {
				return
			}
		}
	}
}

// Values is Iter without the entity ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}
