// Package planner turns a pool of candidate activities into up to three short
// itineraries: a best match for the companion mode, a budget option and a
// category-diverse mix.
//
// Everything here is pure: no I/O, no clock, no randomness. Identical input
// yields identical output, and calls may run concurrently.
package planner
