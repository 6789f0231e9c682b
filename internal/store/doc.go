// Package store provides SQLite-backed run history for the harness.
//
// Every recorded run gets a row in runs, and every verdict of that run a row
// in verdicts keyed by (run_id, seq), where seq is the processing order.
// Verdict rows keep the BLAKE3 digest of the test file so two runs can be
// compared per file, including whether the file itself changed in between.
//
// # Database Configuration
//
//   - WAL mode: history can be read while a run is recording
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Verdicts must reference an existing run
//
// A Recorder additionally holds an advisory file lock next to the database
// for the whole run, so two harness processes never interleave writes.
package store
