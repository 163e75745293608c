package ecs

// System is one step of the per-frame update.
// Implementations are usually pointer-to-struct types whose Query and Singleton
// fields are wired by Scheduler.Register; other fields persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}
