// Package physics declares what the synchronization core consumes from a
// physics engine: a world with bounded stepping, bodies with optional
// interpolation and bounding-box data, contacts, and constraints exposing their
// internal equations. The core only reads through these interfaces; population
// happens in scene builders and stepping in the fixed-step driver.
package physics
