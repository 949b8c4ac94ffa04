package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zonewatch/docreport/internal/config"
)

// characterSettings is injected at the top of every prompt in TOON form.
const characterSettings = `you are a chatbot of zonewatch(name)
character{name, personality, tone}:
ReportBot, Helpful and intelligent assistant, Polite and concise`

// Responder produces a free-form answer for a prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// Turn is one past exchange entry.
type Turn struct {
	Role    string // "user" or "model"
	Content string
}

// Reply is one answer with its retrieval provenance.
type Reply struct {
	Text    string
	RAGUsed bool
	Score   float64
}

// Session holds the conversation state of one interactive chat.
type Session struct {
	responder Responder
	index     *Index
	cfg       config.ChatConfig
	history   []Turn
	log       zerolog.Logger
}

// NewSession creates a chat session over an index. The index may be empty,
// in which case every answer is generated without reference material.
func NewSession(responder Responder, index *Index, cfg config.ChatConfig, log zerolog.Logger) *Session {
	return &Session{
		responder: responder,
		index:     index,
		cfg:       cfg,
		log:       log,
	}
}

// Ask answers one user input. Reference material is attached only when the
// best chunk clears the similarity threshold; a failed search degrades to a
// plain answer.
func (s *Session) Ask(ctx context.Context, input string) (Reply, error) {
	var ragContext string
	var ragUsed bool
	var score float64

	if !s.index.Empty() {
		chunk, sc, err := s.index.Search(ctx, input)
		if err != nil {
			s.log.Warn().Err(err).Msg("retrieval failed, answering without reference")
		} else {
			score = sc
			if sc >= s.cfg.SimilarityThreshold {
				ragUsed = true
				ragContext = fmt.Sprintf("\nreference_material{content}:\n%s\n", chunk)
			}
		}
	}

	prompt := buildPrompt(ragContext, FormatHistoryTOON(s.history), input)

	text, err := s.responder.Respond(ctx, prompt)
	if err != nil {
		return Reply{}, err
	}
	text = strings.TrimSpace(text)

	s.history = append(s.history,
		Turn{Role: "user", Content: input},
		Turn{Role: "model", Content: text},
	)
	if limit := s.cfg.HistoryLimit; limit > 0 && len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}

	return Reply{Text: text, RAGUsed: ragUsed, Score: score}, nil
}

// FormatHistoryTOON renders past turns in TOON form, a compact tabular
// format that spends fewer tokens than JSON:
//
//	history[N]{role, content}:
//	user, ...
//	model, ...
//
// Newlines inside content become spaces and commas become fullwidth commas
// so rows stay parseable.
func FormatHistoryTOON(history []Turn) string {
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nhistory[%d]{role, content}:\n", len(history))
	for _, turn := range history {
		content := strings.ReplaceAll(turn.Content, "\n", " ")
		content = strings.ReplaceAll(content, ",", "，")
		fmt.Fprintf(&b, "%s, %s\n", turn.Role, content)
	}
	return b.String()
}

func buildPrompt(ragContext, historyTOON, input string) string {
	return fmt.Sprintf(`%s

%s

%s

current_input{role, content}:
user, %s

instruction:
Respond to the user input based on the character settings and history.
If 'reference_material' is provided, use it to answer.
Output only the response text.
`, characterSettings, ragContext, historyTOON, input)
}
