// Package frontend is the user-facing chat service. It hands each request
// to the per-user agent session and returns the answer together with the
// intermediate reasoning steps.
package frontend
