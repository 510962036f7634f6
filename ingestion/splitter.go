// Copyright 2025 Verdant Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the default chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the default number of characters shared
	// between consecutive chunks.
	DefaultChunkOverlap = 200
)

// slidingWindow splits text into fixed-size character windows. Each chunk
// after the first begins with exactly chunkOverlap characters copied from
// the tail of its predecessor, so no chunk boundary loses context.
type slidingWindow struct {
	chunkSize    int
	chunkOverlap int
}

var _ textsplitter.TextSplitter = slidingWindow{}

// NewSlidingWindowSplitter creates a character-based splitter. The overlap
// must be non-negative and strictly smaller than the chunk size.
func NewSlidingWindowSplitter(chunkSize, chunkOverlap int) (textsplitter.TextSplitter, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidChunking, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d with chunk size %d", ErrInvalidChunking, chunkOverlap, chunkSize)
	}
	return slidingWindow{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// SplitText implements textsplitter.TextSplitter. Offsets are counted in
// runes, not bytes, so multi-byte characters are never cut in half.
func (s slidingWindow) SplitText(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := s.chunkSize - s.chunkOverlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; ; start += step {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
