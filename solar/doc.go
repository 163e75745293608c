// Package solar assembles the Earth/Moon/Sun scene on top of the ecs package.
//
// A scene is described declaratively by a SceneConfig (usually decoded from YAML),
// turned into entities by Build, and animated by the systems added with
// RegisterSystems. All motion is a closed-form function of the scaled simulation
// time held in the Clock singleton, so the systems can run headless and be tested
// without a window.
//
// Per frame, in registration order:
//
//	ClockSystem          advance elapsed time, sample the time scale, record faults
//	SpinSystem           orient every body with a Spin
//	OrbitSystem          place every body with an Orbit
//	LightTrackingSystem  move lights onto their target body in x and z
//	PublishSystem        hand a Snapshot to the configured sinks (optional)
//	FaultSystem          report the first fault to the host (optional)
package solar
