// Package studio assembles the generation workflows. Each workflow is a
// job.Job driven by a strategy that talks to the remote generation
// service; the studio owns their shared dependencies.
package studio

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Kim6922/senpai-ai/internal/audio"
	"github.com/Kim6922/senpai-ai/internal/chat"
	"github.com/Kim6922/senpai-ai/internal/generator"
	"github.com/Kim6922/senpai-ai/internal/job"
	"github.com/Kim6922/senpai-ai/internal/media"
	"github.com/Kim6922/senpai-ai/internal/poller"
	"github.com/Kim6922/senpai-ai/internal/storage"
	"github.com/Kim6922/senpai-ai/internal/subscription"
)

// Models selects the remote model of each call site.
type Models struct {
	Video      string
	Image      string
	Speech     string
	Chat       string
	SearchChat string
	Text       string
	Enhance    string
}

// DefaultModels returns the models used when none are configured.
func DefaultModels() Models {
	return Models{
		Video:      "veo-3.1-fast-generate-preview",
		Image:      "gemini-2.5-flash-image",
		Speech:     "gemini-2.5-flash-preview-tts",
		Chat:       chat.DefaultModel,
		SearchChat: chat.DefaultSearchModel,
		Text:       "gemini-2.5-pro",
		Enhance:    "gemini-2.5-flash",
	}
}

func (m Models) merge(o Models) Models {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	return Models{
		Video:      pick(m.Video, o.Video),
		Image:      pick(m.Image, o.Image),
		Speech:     pick(m.Speech, o.Speech),
		Chat:       pick(m.Chat, o.Chat),
		SearchChat: pick(m.SearchChat, o.SearchChat),
		Text:       pick(m.Text, o.Text),
		Enhance:    pick(m.Enhance, o.Enhance),
	}
}

// Option configures a Studio.
type Option func(*Studio)

// WithModels overrides the non-empty fields of m.
func WithModels(m Models) Option {
	return func(s *Studio) { s.models = s.models.merge(m) }
}

// WithPollOptions tunes how video operations are polled.
func WithPollOptions(opts ...poller.Option) Option {
	return func(s *Studio) { s.pollOpts = append(s.pollOpts, opts...) }
}

// WithLogger sets the logger shared by every job.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGate sets the subscription gate consulted by the gated workflows.
// Without one they are always refused.
func WithGate(g subscription.Gate) Option {
	return func(s *Studio) { s.gate = g }
}

// WithPlayback sets where synthesized audio is played.
func WithPlayback(pc audio.Context) Option {
	return func(s *Studio) {
		if pc != nil {
			s.playback = pc
		}
	}
}

// WithMedia sets the processor used to read uploaded videos.
func WithMedia(p media.Processor) Option {
	return func(s *Studio) { s.media = p }
}

// WithHistory sets where attempt records are kept.
func WithHistory(repo job.Repository) Option {
	return func(s *Studio) {
		if repo != nil {
			s.history = repo
		}
	}
}

// WithObserver is notified of every transition of every workflow.
func WithObserver(o job.Observer) Option {
	return func(s *Studio) { s.observers = append(s.observers, o) }
}

// Studio holds one job per workflow.
type Studio struct {
	Video *job.Job[VideoInput, *MediaHandle]
	Movie *job.Job[MovieInput, *MediaHandle]
	Image *job.Job[ImageInput, *ImageResult]
	Voice *job.Job[VoiceInput, *AudioResult]
	Music *job.Job[MusicInput, *AudioResult]
	Sound *job.Job[SoundInput, *AudioResult]
	TTRPG *job.Job[TTRPGInput, string]
	Chat  *job.Job[ChatInput, ChatMessage]

	svc        generator.Service
	credential bool
	store      storage.Storage
	media      media.Processor
	playback   audio.Context
	gate       subscription.Gate
	history    job.Repository
	observers  []job.Observer
	models     Models
	pollOpts   []poller.Option
	logger     *slog.Logger
	conv       *chat.Conversation
}

// New creates a studio. A nil svc means no credential is configured:
// every workflow then fails its submissions with a configuration error.
func New(svc generator.Service, store storage.Storage, opts ...Option) *Studio {
	s := &Studio{
		svc:        svc,
		credential: svc != nil,
		store:      store,
		playback:   audio.Nop{},
		history:    job.NewMemoryRepository(),
		models:     DefaultModels(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pollOpts = append([]poller.Option{poller.WithLogger(s.logger)}, s.pollOpts...)
	s.conv = chat.NewConversation(svc, chat.WithModels(s.models.Chat, s.models.SearchChat))

	v := newValidator()
	s.Video = job.New(string(WorkflowVideo), job.StrategyFunc[VideoInput, *MediaHandle](s.dispatchVideo), s.jobOptions(WorkflowVideo, v)...)
	s.Movie = job.New(string(WorkflowMovie), job.StrategyFunc[MovieInput, *MediaHandle](s.dispatchMovie), s.jobOptions(WorkflowMovie, v)...)
	s.Image = job.New(string(WorkflowImage), job.StrategyFunc[ImageInput, *ImageResult](s.dispatchImage), s.jobOptions(WorkflowImage, v)...)
	s.Voice = job.New(string(WorkflowVoice), job.StrategyFunc[VoiceInput, *AudioResult](s.dispatchVoice), s.jobOptions(WorkflowVoice, v)...)
	s.Music = job.New(string(WorkflowMusic), job.StrategyFunc[MusicInput, *AudioResult](s.dispatchMusic), s.jobOptions(WorkflowMusic, v)...)
	s.Sound = job.New(string(WorkflowSound), job.StrategyFunc[SoundInput, *AudioResult](s.dispatchSound), s.jobOptions(WorkflowSound, v)...)
	s.TTRPG = job.New(string(WorkflowTTRPG), job.StrategyFunc[TTRPGInput, string](s.dispatchTTRPG), s.jobOptions(WorkflowTTRPG, v)...)
	s.Chat = job.New(string(WorkflowChat), job.StrategyFunc[ChatInput, ChatMessage](s.dispatchChat), s.jobOptions(WorkflowChat, v)...)
	return s
}

// jobOptions builds the preconditions of w in the order validation,
// credential, subscription.
func (s *Studio) jobOptions(w Workflow, v *validator.Validate) []job.Option {
	opts := []job.Option{
		job.WithLogger(s.logger),
		job.WithValidation(v, ValidationMessage(w)),
		job.WithCredential(s.credential),
	}
	if w.Gated() {
		opts = append(opts, job.WithCheck(func(context.Context, any) error {
			if s.gate == nil || !s.gate.Active() {
				return job.SubscriptionRequired()
			}
			return nil
		}))
	}
	opts = append(opts, job.WithObserver(job.Recorder(s.history)))
	for _, o := range s.observers {
		opts = append(opts, job.WithObserver(o))
	}
	return opts
}

// Conversation returns the chat transcript owner.
func (s *Studio) Conversation() *chat.Conversation { return s.conv }

// SendChat submits one chat message. Without a credential the
// conversation records the not-configured reply and nothing is sent.
func (s *Studio) SendChat(ctx context.Context, text string) (*job.Task, error) {
	task, err := s.Chat.Submit(ctx, ChatInput{Text: text})
	if job.IsKind(err, job.KindConfiguration) {
		s.conv.ReportNotConfigured()
	}
	return task, err
}

// HasCredential reports whether a remote credential is configured.
func (s *Studio) HasCredential() bool { return s.credential }

// Subscribed reports the gate state.
func (s *Studio) Subscribed() bool { return s.gate != nil && s.gate.Active() }

// History returns the attempt records of every workflow, oldest first.
func (s *Studio) History(ctx context.Context) ([]job.Record, error) {
	return s.history.List(ctx)
}

// WorkflowStatus summarizes one job.
type WorkflowStatus struct {
	Workflow    Workflow
	Status      job.Status
	AttemptID   string
	Err         *job.Error
	StartedAt   time.Time
	CompletedAt time.Time
}

func statusOf[In, Out any](w Workflow, j *job.Job[In, Out]) WorkflowStatus {
	snap := j.Snapshot()
	return WorkflowStatus{
		Workflow:    w,
		Status:      snap.Status,
		AttemptID:   snap.AttemptID,
		Err:         snap.Err,
		StartedAt:   snap.StartedAt,
		CompletedAt: snap.CompletedAt,
	}
}

// Statuses returns every workflow's state in display order.
func (s *Studio) Statuses() []WorkflowStatus {
	return []WorkflowStatus{
		statusOf(WorkflowVideo, s.Video),
		statusOf(WorkflowMovie, s.Movie),
		statusOf(WorkflowImage, s.Image),
		statusOf(WorkflowVoice, s.Voice),
		statusOf(WorkflowMusic, s.Music),
		statusOf(WorkflowSound, s.Sound),
		statusOf(WorkflowTTRPG, s.TTRPG),
		statusOf(WorkflowChat, s.Chat),
	}
}

// Close releases every finished result. Running attempts are left alone.
func (s *Studio) Close() error {
	var errs []error
	for _, reset := range []func() error{
		s.Video.Reset, s.Movie.Reset, s.Image.Reset, s.Voice.Reset,
		s.Music.Reset, s.Sound.Reset, s.TTRPG.Reset, s.Chat.Reset,
	} {
		if err := reset(); err != nil && !errors.Is(err, job.ErrAlreadyRunning) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
