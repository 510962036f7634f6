// Package ingestion loads source documents, splits them into overlapping
// character windows, embeds each chunk, and writes the results to a vector
// repository in a single append-only batch.
package ingestion
