// Package data defines the panel data payload that flows from data
// providers to scene objects: a loading state, an ordered list of result
// series and the ancillary fields (time range, request id, error) that
// accompany them.
package data
