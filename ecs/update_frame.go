package ecs

// UpdateFrame is handed to every system during one Scheduler.Once call.
type UpdateFrame struct {
	// DeltaTime is the wall-clock seconds since the previous frame, as supplied by the host.
	DeltaTime float64
	Commands  *Commands
	Storage   *Storage
}

func (f *UpdateFrame) reset(dt float64) {
	f.DeltaTime = dt
}
