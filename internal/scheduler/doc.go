// Package scheduler contains the timetable construction engine: the hard
// constraint validator, the interchangeable solver strategies and the gap
// analyzer that turns solver output into structured recommendations.
//
// Everything in this package is pure with respect to its inputs. Solvers own
// no state across calls and can run concurrently, one per planning unit.
package scheduler
