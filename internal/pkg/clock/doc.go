// Package clock hides time.Now behind an interface.
//
// Token expiry, code windows and activity timestamps all read time through a
// Clocker so tests can pin or step the clock.
package clock
