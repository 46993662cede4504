// Package window generates window functions for FIR design.
//
// Windows are evaluated on a normalized position x in [0, 1]. Symmetric
// windows place the first and last coefficient at the edges; periodic
// windows (WithPeriodic) leave out the closing sample.
package window
