// Package kinematics holds the closed-form motion of the scene's bodies: spin about
// a fixed axis, circular orbits around the origin with an optional out-of-plane
// wobble, and the clock that drives them.
//
// Every function here is pure arithmetic on float64 and mgl64 values. Validation
// happens once, when a Spin, Orbit or time scale is configured, so per-frame calls
// never need to check for division by zero.
package kinematics
