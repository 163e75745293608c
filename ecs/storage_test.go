package ecs_test

import (
	"fmt"
	"reflect"
	"runtime"
	"testing"

	"github.com/plus3/orrery/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIdEncoding(t *testing.T) {
	tests := []struct {
		archetypeId uint32
		index       uint32
	}{
		{0, 0},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{1, 0},
		{0, 1},
		{0x12345678, 0x9ABCDEF0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("archetype=%d,index=%d", tt.archetypeId, tt.index), func(t *testing.T) {
			entityId := ecs.NewEntityId(tt.archetypeId, tt.index)
			assert.Equal(t, tt.archetypeId, entityId.ArchetypeId())
			assert.Equal(t, tt.index, entityId.Index())
		})
	}
}

func TestSpawnAndGetComponent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1, Y: 2, Z: 3}, Label("earth"))
	assert.NotEqual(t, ecs.EntityId(0), id)

	pos := ecs.ReadComponent[Position](storage, id)
	require.NotNil(t, pos)
	assert.Equal(t, Position{X: 1, Y: 2, Z: 3}, *pos)

	label := ecs.ReadComponent[Label](storage, id)
	require.NotNil(t, label)
	assert.Equal(t, Label("earth"), *label)

	assert.Nil(t, ecs.ReadComponent[Velocity](storage, id))
	assert.True(t, storage.HasComponent(id, reflect.TypeFor[Position]()))
	assert.False(t, storage.HasComponent(id, reflect.TypeFor[Velocity]()))
}

func TestComponentPointersAreStable(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	first := storage.Spawn(Position{X: 1}, Mass(5))
	pos := ecs.ReadComponent[Position](storage, first)

	// Grow the column past several blocks.
	for i := 0; i < 500; i++ {
		storage.Spawn(Position{X: float64(i)}, Mass(1))
	}

	pos.X = 42
	assert.Equal(t, 42.0, ecs.ReadComponent[Position](storage, first).X)
}

func TestSameComponentsShareArchetype(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id1 := storage.Spawn(Position{X: 1}, Velocity{DX: 0.1})
	id2 := storage.Spawn(Velocity{DX: 0.2}, Position{X: 2})
	id3 := storage.Spawn(Position{X: 3})

	assert.Equal(t, id1.ArchetypeId(), id2.ArchetypeId())
	assert.NotEqual(t, id1.ArchetypeId(), id3.ArchetypeId())
	assert.NotEqual(t, id1.Index(), id2.Index())
}

func TestDeleteReusesSlot(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1}, Label("moon"))
	storage.Delete(id)
	assert.Nil(t, ecs.ReadComponent[Position](storage, id))

	again := storage.Spawn(Position{X: 9}, Label("sun"))
	assert.Equal(t, id, again)
	assert.Equal(t, 9.0, ecs.ReadComponent[Position](storage, again).X)
}

func TestSpawnUnregisteredPanics(t *testing.T) {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())
	assert.False(t, storage.Registry().Registered(reflect.TypeFor[Position]()))
	assert.Panics(t, func() { storage.Spawn(Position{}) })
	assert.Panics(t, func() { storage.Spawn() })

	registered := ecs.NewStorage(newTestRegistry())
	assert.True(t, registered.Registry().Registered(reflect.TypeFor[Position]()))
}

func TestEntityRef(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{}, Label("sun"))
	ref := storage.CreateEntityRef(id)
	require.NotNil(t, ref)
	assert.Same(t, ref, storage.CreateEntityRef(id))

	resolved, ok := storage.ResolveEntityRef(ref)
	assert.True(t, ok)
	assert.Equal(t, id, resolved)

	storage.Delete(id)
	runtime.KeepAlive(ref)

	_, ok = storage.ResolveEntityRef(ref)
	assert.False(t, ok)
	assert.False(t, ref.Valid())
	assert.Nil(t, storage.CreateEntityRef(ecs.NewEntityId(1, 1)))
}

func TestSingletons(t *testing.T) {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())

	var missing *Spin
	assert.False(t, storage.ReadSingleton(&missing))

	clock := ecs.NewSingleton[Spin](storage, Spin{Period: 10})
	clock.Get().Angle = 1.5

	var spin *Spin
	require.True(t, storage.ReadSingleton(&spin))
	assert.Equal(t, 1.5, spin.Angle)
	assert.Equal(t, 10.0, spin.Period)

	// A second accessor without initializer sees the same value.
	assert.Same(t, clock.Get(), ecs.NewSingleton[Spin](storage).Get())

	// Replacing keeps existing accessors valid.
	storage.AddSingleton(Spin{Period: 20})
	assert.Equal(t, 20.0, clock.Get().Period)

	var accessor ecs.Singleton[Mass]
	accessor.Init(storage)
	assert.False(t, accessor.Exists())
	storage.AddSingleton(Mass(3))
	assert.True(t, accessor.Exists())
	assert.Equal(t, Mass(3), *accessor.Get())
}
