// Package events publishes task lifecycle transitions to in-process
// handlers.
//
// The task runner emits a TaskEvent when a task is accepted, finishes or
// is rejected. Handlers observe these transitions without depending on the
// task package; StatusCounter keeps cumulative totals that outlive the
// retention sweep of task records.
package events
