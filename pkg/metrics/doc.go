// Package metrics derives the classification table from a lap store snapshot.
//
// Every function is pure: the same snapshot and session type always produce the same rows,
// and absent timing data yields "N/A" or "P+n" sentinels rather than zeros.
package metrics
