// Package session owns the controller session: one TCP connection at a
// time, driven connect -> register -> serve -> close -> delay, forever.
//
// Ownership boundary:
// - fixed-delay reconnect policy
// - register handshake
// - serve loop (framer feed, dispatch, response write)
// - the device state cache (single setpoint)
//
// All disconnect causes collapse onto the same reconnect path: EOF,
// read error, and response write error each end the session and the
// next attempt starts after the reconnect delay. The controller is
// expected to re-request state after a lost update.
package session
