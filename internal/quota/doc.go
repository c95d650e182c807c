// Package quota tracks how many requests each caller has made in the current
// fixed time window and decides whether the next one is admitted.
//
// The ledger is a fixed-window counter, not a sliding window or token bucket.
// A caller can make up to limit requests at the end of one window and another
// limit at the start of the next. That burst is accepted behavior.
package quota
