// Package syncer ties the commit routine to its surroundings: vault
// resolution, persisted settings, the scheduler and user notices.
//
// A Syncer never returns cycle failures to its caller. Every fatal error is
// turned into a truncated notice plus a full entry in the diagnostic log.
package syncer
