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
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/tools"
	"github.com/verdantlabs/dossier/ai"
	"github.com/verdantlabs/dossier/core"
	"github.com/verdantlabs/dossier/storage"
)

// NewTransport returns the HTTP transport shared by every session's tool
// client. The connection cap bounds fan-out to the retrieval service no
// matter how many sessions are live.
func NewTransport() *http.Transport {
	return &http.Transport{
		MaxConnsPerHost:     100,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
	}
}

// Session is one user's live agent: a conversation buffer plus an
// executor over the shared tool set. Turns within a session run serially.
type Session struct {
	userID   string
	executor *Executor
	buffer   *memory.ConversationBuffer
	tools    []tools.Tool

	mu sync.Mutex
}

// SessionManager creates and caches per-user sessions. Lookups and
// creation are guarded by a single mutex, so concurrent requests for the
// same user always share one session.
type SessionManager struct {
	completer ai.Completer
	history   storage.HistoryRepository
	client    *http.Client

	baseURL       string
	authToken     string
	contact       ContactInfo
	maxIterations int
	monitor       TurnMonitor
	now           func() time.Time
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// ManagerOption configures a SessionManager.
type ManagerOption func(*SessionManager) error

// WithHTTPClient injects the client used by HTTP-backed tools. The caller
// owns the transport; pass a client built over NewTransport().
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *SessionManager) error {
		if client != nil {
			m.client = client
		}
		return nil
	}
}

// WithRetrievalBaseURL points the search tool at the retrieval service.
func WithRetrievalBaseURL(baseURL string) ManagerOption {
	return func(m *SessionManager) error {
		if baseURL != "" {
			m.baseURL = baseURL
		}
		return nil
	}
}

// WithRetrievalAuthToken forwards a bearer token on retrieval calls.
func WithRetrievalAuthToken(token string) ManagerOption {
	return func(m *SessionManager) error {
		m.authToken = token
		return nil
	}
}

// WithContactInfo sets the static card behind the contact tool.
func WithContactInfo(info ContactInfo) ManagerOption {
	return func(m *SessionManager) error {
		m.contact = info
		return nil
	}
}

// WithSessionMaxIterations caps each session's reasoning loop.
func WithSessionMaxIterations(n int) ManagerOption {
	return func(m *SessionManager) error {
		if n < 1 {
			return ErrInvalidIterations
		}
		m.maxIterations = n
		return nil
	}
}

// WithSessionMonitor attaches a step monitor to every session's executor.
func WithSessionMonitor(monitor TurnMonitor) ManagerOption {
	return func(m *SessionManager) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		m.monitor = monitor
		return nil
	}
}

// WithClock injects the time source used for prompts and persisted turns.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *SessionManager) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}

// WithSessionLogger sets a custom logger.
func WithSessionLogger(logger *slog.Logger) ManagerOption {
	return func(m *SessionManager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewSessionManager creates a session manager backed by a chat model and a
// conversation-history repository.
func NewSessionManager(completer ai.Completer, history storage.HistoryRepository, opts ...ManagerOption) (*SessionManager, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if history == nil {
		return nil, ErrHistoryRequired
	}

	m := &SessionManager{
		completer:     completer,
		history:       history,
		client:        &http.Client{Transport: NewTransport()},
		baseURL:       "http://127.0.0.1:8080",
		maxIterations: DefaultMaxIterations,
		monitor:       &noopMonitor{},
		now:           time.Now,
		logger:        slog.Default().With("component", "agent-sessions"),
		sessions:      make(map[string]*Session),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Get returns the user's session, creating it on first use. Creation
// replays the user's persisted history into a fresh conversation buffer.
func (m *SessionManager) Get(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[userID]; ok {
		return session, nil
	}

	session, err := m.createSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	m.sessions[userID] = session
	m.logger.Info("created agent session", "user", userID)
	return session, nil
}

// SessionCount returns the number of live sessions.
func (m *SessionManager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) createSession(ctx context.Context, userID string) (*Session, error) {
	turns, err := m.history.GetTurns(ctx, userID)
	if err != nil {
		return nil, err
	}

	previous := make([]llms.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		switch turn.Speaker {
		case core.SpeakerTypeHuman:
			previous = append(previous, llms.HumanChatMessage{Content: turn.Text})
		case core.SpeakerTypeAI:
			previous = append(previous, llms.AIChatMessage{Content: turn.Text})
		}
	}

	buffer := memory.NewConversationBuffer(
		memory.WithChatHistory(memory.NewChatMessageHistory(memory.WithPreviousMessages(previous))),
		memory.WithMemoryKey("chat_history"),
		memory.WithInputKey("input"),
		memory.WithOutputKey("output"),
	)

	toolSet := []tools.Tool{
		&SearchProfileTool{Client: m.client, BaseURL: m.baseURL, AuthToken: m.authToken},
		&ContactInformationTool{Info: m.contact},
		&CurrentDateTool{Now: m.now},
	}

	executor, err := NewExecutor(m.completer, toolSet,
		WithMaxIterations(m.maxIterations),
		WithMonitor(m.monitor),
		WithExecutorLogger(m.logger),
	)
	if err != nil {
		return nil, err
	}

	return &Session{
		userID:   userID,
		executor: executor,
		buffer:   buffer,
		tools:    toolSet,
	}, nil
}

// Converse runs one turn for the user: retrieve or create their session,
// run the reasoning loop, then record the exchange in both the in-memory
// buffer and the durable history.
func (m *SessionManager) Converse(ctx context.Context, userID, message string) (*Result, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	session, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	messages, err := session.buffer.ChatHistory.Messages(ctx)
	if err != nil {
		return nil, err
	}
	historyText, err := llms.GetBufferString(messages, "Human", "AI")
	if err != nil {
		return nil, err
	}

	system := SystemPrompt(session.tools, historyText, m.now())
	result, err := session.executor.Run(ctx, system, message)
	if err != nil {
		return nil, err
	}

	if err := session.buffer.ChatHistory.AddUserMessage(ctx, message); err != nil {
		return nil, err
	}
	if err := session.buffer.ChatHistory.AddAIMessage(ctx, result.Answer); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	err = m.history.AppendTurns(ctx, userID,
		&core.ConversationTurn{Speaker: core.SpeakerTypeHuman, Text: message, Timestamp: now},
		&core.ConversationTurn{Speaker: core.SpeakerTypeAI, Text: result.Answer, Timestamp: now},
	)
	if err != nil {
		// The answer is already produced; losing durability is logged, not fatal.
		m.logger.Error("persisting turns failed", "user", userID, "err", err)
	}

	return result, nil
}
