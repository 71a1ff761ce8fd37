// Package workers implements the worker pool used for level-parallel
// lifecycle execution.
//
// The worker pool manages a fixed number of goroutines that:
//   - Receive role jobs submitted as a batch (one dependency level)
//   - Run every job of the batch, even when some fail
//   - Report the combined failures back to the caller
//
// The health monitor periodically logs the system status and records
// worker metrics.
package workers
