package ecs

import "unsafe"

// iface mirrors the runtime layout of a non-empty or empty interface value,
// letting views pull the data pointer out of an `any` without reflection.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
