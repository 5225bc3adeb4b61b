// Package queue persists conversion jobs in SQLite and models their
// lifecycle. Jobs move Pending -> Running -> {Completed, Failed, Cancelled};
// terminal states are final and a retry is a new job.
package queue
