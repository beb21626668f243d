// Package link keeps the wireless uplink alive and gates client
// startup on network readiness.
//
// Ownership boundary:
// - Radio and NetStack collaborator contracts
// - link supervision state machine (infinite fixed-delay retry)
// - readiness gate (link up + IPv4 assigned)
//
// The radio itself is platform hardware; this package only sequences
// it. On hosts where the operating system owns the association,
// ManagedRadio adapts the contract to link-state observation.
package link
