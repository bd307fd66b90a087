// Package coach runs the three conversation modes: plan coaching, general
// questions with retrieved context, and food photo or menu analysis.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/llm"
	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/internal/nutrition"
	"github.com/hyperjump/omny/internal/prompt"
	"github.com/hyperjump/omny/internal/render"
	"github.com/hyperjump/omny/internal/retrieval"
	"github.com/hyperjump/omny/internal/store"
	"github.com/hyperjump/omny/pkg/utils"
)

const pdfMimeType = "application/pdf"

var (
	// ErrEmptyRequest is returned when there is nothing to send to the model.
	ErrEmptyRequest = errors.New("empty request")
	// ErrModelUnavailable wraps every failed model call.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInvalidProfile wraps profile range violations.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Models selects the model per mode.
type Models struct {
	Chat   string
	Vision string
}

// Reply is the assistant's answer to one message.
type Reply struct {
	Text          string   `json:"reply"`
	PlanAvailable bool     `json:"plan_available"`
	ToolCalls     []string `json:"tool_calls,omitempty"`
}

// Attachment is an uploaded photo or PDF for vision analysis.
type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
}

// IsPDF reports whether the attachment is a PDF document.
func (a *Attachment) IsPDF() bool {
	return a != nil && strings.EqualFold(strings.TrimSpace(strings.SplitN(a.MimeType, ";", 2)[0]), pdfMimeType)
}

// Service owns the profile, the transcripts and the model calls.
type Service struct {
	gen         llm.Generator
	gateway     *retrieval.Gateway
	profiles    *store.ProfileStore
	transcripts *store.TranscriptStore
	renderer    *render.Renderer
	tools       *llm.Toolset
	models      Models
	logger      *zap.Logger

	// turn is held for a whole exchange so replies land after their question.
	turn sync.Mutex

	mu     sync.Mutex
	state  models.Transcripts
	loaded bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = utils.OrNop(l) }
}

// WithRenderer sets the plan renderer. The default renders without a brand image.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// NewService creates the service. gateway may be nil; general questions then
// use the fallback context.
func NewService(
	gen llm.Generator,
	gateway *retrieval.Gateway,
	profiles *store.ProfileStore,
	transcripts *store.TranscriptStore,
	m Models,
	opts ...Option,
) *Service {
	s := &Service{
		gen:         gen,
		gateway:     gateway,
		profiles:    profiles,
		transcripts: transcripts,
		renderer:    render.New(render.DefaultOptions()),
		tools:       Tools(),
		models:      m,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Coach answers a coaching message using the stored profile and the metric tools.
func (s *Service) Coach(ctx context.Context, input string) (Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}, ErrEmptyRequest
	}
	s.turn.Lock()
	defer s.turn.Unlock()
	profile := s.Profile()
	history := s.begin(models.ModeCoach, input)

	resp, err := s.gen.Generate(ctx, llm.Request{
		Model:   s.models.Chat,
		System:  prompt.CoachInstruction(profile),
		History: history,
		Parts:   []llm.Part{llm.TextPart(input)},
		Tools:   s.tools,
	})
	if err != nil {
		return Reply{}, s.modelError(models.ModeCoach, err)
	}
	s.finish(models.ModeCoach, resp.Text)

	reply := Reply{Text: resp.Text, PlanAvailable: render.LooksLikePlan(resp.Text)}
	for _, tc := range resp.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, tc.Name)
	}
	return reply, nil
}

// Ask answers a general question with knowledge-base context.
func (s *Service) Ask(ctx context.Context, input string) (Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}, ErrEmptyRequest
	}
	s.turn.Lock()
	defer s.turn.Unlock()
	knowledge := retrieval.FallbackContext
	if s.gateway != nil {
		knowledge = s.gateway.Context(ctx, input)
	}
	history := s.begin(models.ModeGeneral, input)

	resp, err := s.gen.Generate(ctx, llm.Request{
		Model:   s.models.Chat,
		System:  prompt.GeneralInstruction(knowledge),
		History: history,
		Parts:   []llm.Part{llm.TextPart(input)},
	})
	if err != nil {
		return Reply{}, s.modelError(models.ModeGeneral, err)
	}
	s.finish(models.ModeGeneral, resp.Text)
	return Reply{Text: resp.Text}, nil
}

// Analyze sends a photo or menu, and optional text, to the vision model.
// Vision exchanges are not kept in a transcript.
func (s *Service) Analyze(ctx context.Context, file *Attachment, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	hasFile := file != nil && len(file.Data) > 0
	if !hasFile && text == "" {
		return Reply{}, ErrEmptyRequest
	}
	parts := []llm.Part{llm.TextPart(prompt.VisionPrompt(file.IsPDF(), text))}
	if hasFile {
		parts = append(parts, llm.BlobPart(file.MimeType, file.Data))
	}
	resp, err := s.gen.Generate(ctx, llm.Request{Model: s.models.Vision, Parts: parts})
	if err != nil {
		s.logger.Error("vision analysis failed", zap.Error(err))
		return Reply{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return Reply{Text: resp.Text}, nil
}

// begin records the user's message and returns the conversation before it,
// in model format.
func (s *Service) begin(mode models.Mode, input string) []llm.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	history := toHistory(s.state.Messages(mode))
	s.state.Append(mode, models.RoleUser, input)
	s.saveLocked()
	return history
}

func (s *Service) finish(mode models.Mode, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Append(mode, models.RoleAssistant, reply)
	s.saveLocked()
}

// modelError logs a failed call. The user's message stays in the transcript.
func (s *Service) modelError(mode models.Mode, err error) error {
	s.logger.Error("model call failed", zap.String("mode", string(mode)), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrModelUnavailable, err)
}

// toHistory converts transcript messages to model contents.
func toHistory(msgs []models.Message) []llm.Content {
	out := make([]llm.Content, 0, len(msgs))
	for _, m := range msgs {
		role := llm.RoleUser
		if m.Role == models.RoleAssistant {
			role = llm.RoleModel
		}
		out = append(out, llm.Content{Role: role, Parts: []llm.Part{llm.TextPart(m.Content)}})
	}
	return out
}

func (s *Service) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	t, found, err := s.transcripts.Load()
	switch {
	case err != nil:
		s.logger.Warn("could not read chat history, starting fresh", zap.String("path", s.transcripts.Path()), zap.Error(err))
		s.state = models.NewTranscripts()
	case !found:
		s.state = models.NewTranscripts()
	default:
		s.state = t
	}
}

func (s *Service) saveLocked() {
	if err := s.transcripts.Save(s.state); err != nil {
		s.logger.Warn("could not save chat history", zap.String("path", s.transcripts.Path()), zap.Error(err))
	}
}

// Transcripts returns a copy of both conversations.
func (s *Service) Transcripts() models.Transcripts {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.state.Clone()
}

// Reset deletes the saved chat history and reseeds both greetings.
func (s *Service) Reset() error {
	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.state = models.NewTranscripts()
	if err := s.transcripts.Clear(); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

// Profile returns the saved profile, or the default profile when none is
// saved or the file cannot be read.
func (s *Service) Profile() models.Profile {
	p, found, err := s.profiles.Load()
	if err != nil {
		s.logger.Warn("could not read profile, using defaults", zap.String("path", s.profiles.Path()), zap.Error(err))
		return models.DefaultProfile()
	}
	if !found {
		return models.DefaultProfile()
	}
	return p
}

// SaveProfile validates and stores p, replacing the previous profile.
// Recognized gender and goal tokens are stored in display form.
func (s *Service) SaveProfile(p models.Profile) (models.Profile, error) {
	if err := p.Validate(); err != nil {
		return models.Profile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if g, ok := nutrition.ParseGender(p.Gender); ok {
		p.Gender = g.String()
	}
	if g, ok := nutrition.ParseGoal(p.Goal); ok {
		p.Goal = g.String()
	}
	if err := s.profiles.Save(p); err != nil {
		return models.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Metrics computes BMR and macro targets for the current profile.
func (s *Service) Metrics() nutrition.Report {
	p := s.Profile()
	r := nutrition.Summary(p)
	if len(r.Unrecognized) > 0 {
		s.logger.Warn("profile value not recognized, default branch used", zap.Strings("fields", r.Unrecognized))
	}
	return r
}

// ExportPlan renders plan text as a PDF document.
func (s *Service) ExportPlan(text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyRequest
	}
	return s.renderer.Render(text)
}

// LatestPlan returns the most recent coach reply that looks like a plan.
func (s *Service) LatestPlan() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	for i := len(s.state.Coach) - 1; i >= 0; i-- {
		m := s.state.Coach[i]
		if m.Role == models.RoleAssistant && render.LooksLikePlan(m.Content) {
			return m.Content, true
		}
	}
	return "", false
}
