// Package clock provides a tiny time abstraction.
//
// The send receipt timestamp comes from a Clocker so tests can pin it with
// Fixed instead of depending on time.Now.
package clock
