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

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools"
	"github.com/verdantlabs/dossier/retrieval"
)

// SearchProfileTool queries the retrieval service for profile documents
// related to the input. HTTP failures are reported back to the model as
// observation text, never as Go errors, so the reasoning loop can recover.
type SearchProfileTool struct {
	Client    *http.Client
	BaseURL   string
	AuthToken string
}

var _ tools.Tool = (*SearchProfileTool)(nil)

func (t *SearchProfileTool) Name() string {
	return "search_profile"
}

func (t *SearchProfileTool) Description() string {
	return "Searches verified background information: work experience, publications, and personal projects. Input is a plain-text question."
}

func (t *SearchProfileTool) Call(ctx context.Context, input string) (string, error) {
	url := strings.TrimRight(t.BaseURL, "/") + "/query"

	body, err := json.Marshal(retrieval.QueryRequest{Query: input})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.AuthToken)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error sending POST request to %s: %v", url, err), nil
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error sending POST request to %s: %v", url, err), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Sprintf("Error sending POST request to %s: %s", url, strings.TrimSpace(string(payload))), nil
	}

	var result retrieval.QueryResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return fmt.Sprintf("Error sending POST request to %s: %v", url, err), nil
	}
	if len(result.Results) == 0 {
		return "No matching information found.", nil
	}

	texts := make([]string, len(result.Results))
	for i, match := range result.Results {
		texts[i] = match.Text
	}
	return strings.Join(texts, "\n\n"), nil
}

// ContactInfo holds the static contact card served by the contact tool.
type ContactInfo struct {
	Name     string
	Email    string
	LinkedIn string
	Location string
}

// ContactInformationTool answers contact questions from a static card,
// without a round trip to the retrieval service.
type ContactInformationTool struct {
	Info ContactInfo
}

var _ tools.Tool = (*ContactInformationTool)(nil)

func (t *ContactInformationTool) Name() string {
	return "contact_information"
}

func (t *ContactInformationTool) Description() string {
	return "Returns contact information: name, email, LinkedIn, and location. Use for any question about how to reach out."
}

func (t *ContactInformationTool) Call(_ context.Context, _ string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", t.Info.Name)
	fmt.Fprintf(&b, "Email: %s\n", t.Info.Email)
	if t.Info.LinkedIn != "" {
		fmt.Fprintf(&b, "LinkedIn: %s\n", t.Info.LinkedIn)
	}
	if t.Info.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", t.Info.Location)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// CurrentDateTool reports today's date. The clock is injectable so tests
// stay deterministic.
type CurrentDateTool struct {
	Now func() time.Time
}

var _ tools.Tool = (*CurrentDateTool)(nil)

func (t *CurrentDateTool) Name() string {
	return "current_date"
}

func (t *CurrentDateTool) Description() string {
	return "Returns today's date in YYYY-MM-DD format. Use for any question involving the current date."
}

func (t *CurrentDateTool) Call(_ context.Context, _ string) (string, error) {
	now := t.Now
	if now == nil {
		now = time.Now
	}
	return now().Format("2006-01-02"), nil
}
