package ecs

import "fmt"

// EntityId encodes both the archetype ID (upper 32 bits) and the slot index (lower 32 bits).
// Zero is never a live entity.
type EntityId uint64

// NewEntityId packs an archetype ID and slot index into an EntityId.
func NewEntityId(archetypeId uint32, index uint32) EntityId {
	return EntityId(uint64(archetypeId)<<32 | uint64(index))
}

// ArchetypeId extracts the archetype ID from the entity ID
func (e EntityId) ArchetypeId() uint32 {
	return uint32(e >> 32)
}

// Index extracts the slot index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

func (e EntityId) String() string {
	return fmt.Sprintf("%08x:%d", e.ArchetypeId(), e.Index())
}

// EntityRef is a stable handle to an entity that other components can hold.
// Deleting the entity zeroes Id, so holders can detect that the target is gone.
type EntityRef struct {
	Id        EntityId
	Archetype *Archetype
}

// Valid reports whether the referenced entity still exists.
func (r *EntityRef) Valid() bool {
	return r != nil && r.Id != 0
}
