// Package agent implements per-user assistant sessions over a closed set
// of tools. Each session runs a finite-iteration reasoning loop: the chat
// model picks tools via JSON action blobs, observations feed back into the
// next generation, and the loop always ends with an answer.
package agent
