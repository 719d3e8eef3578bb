package aiconfig

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/store"
)

type Service struct {
	repo  Repository
	audit *audit.Service
}

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc}
}

// Get returns the tenant's configuration, persisting defaults on first read.
func (s *Service) Get(ctx context.Context, sc store.Scope) (Config, error) {
	c, err := s.repo.Get(ctx, sc)
	if !errors.Is(err, apperr.ErrNotFound) {
		return c, err
	}
	c, err = s.repo.Create(ctx, sc, Defaults())
	if errors.Is(err, apperr.ErrConflict) {
		// created concurrently
		return s.repo.Get(ctx, sc)
	}
	return c, err
}

// Create stores a new configuration; Conflict if the tenant already has one.
func (s *Service) Create(ctx context.Context, sc store.Scope, in Input) (Config, error) {
	c, err := apply(Defaults(), in)
	if err != nil {
		return Config{}, err
	}
	out, err := s.repo.Create(ctx, sc, c)
	if err != nil {
		return Config{}, err
	}
	s.record(ctx, sc, out, "create")
	return out, nil
}

// Patch merges in into the stored configuration, starting from defaults when
// there is none.
func (s *Service) Patch(ctx context.Context, sc store.Scope, in Input) (Config, error) {
	base, err := s.repo.Get(ctx, sc)
	if errors.Is(err, apperr.ErrNotFound) {
		base, err = Defaults(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return s.save(ctx, sc, base, in, "patch")
}

// Replace overwrites every field; omitted fields take their defaults.
func (s *Service) Replace(ctx context.Context, sc store.Scope, in Input) (Config, error) {
	return s.save(ctx, sc, Defaults(), in, "replace")
}

// Reset restores the defaults.
func (s *Service) Reset(ctx context.Context, sc store.Scope) (Config, error) {
	return s.save(ctx, sc, Defaults(), Input{}, "reset")
}

func (s *Service) save(ctx context.Context, sc store.Scope, base Config, in Input, op string) (Config, error) {
	c, err := apply(base, in)
	if err != nil {
		return Config{}, err
	}
	out, err := s.repo.Save(ctx, sc, c)
	if err != nil {
		return Config{}, err
	}
	s.record(ctx, sc, out, op)
	return out, nil
}

func (s *Service) record(ctx context.Context, sc store.Scope, c Config, op string) {
	s.audit.Record(ctx, sc, audit.ActionAIConfigChanged, "ai_configuration", c.ID, map[string]any{
		"operation": op,
		"voice":     c.Voice,
	})
}

func apply(base Config, in Input) (Config, error) {
	c := base
	c.IntentActions = maps.Clone(base.IntentActions)

	if in.SystemPrompt != nil {
		c.SystemPrompt = *in.SystemPrompt
	}
	if in.OpeningLine != nil {
		c.OpeningLine = *in.OpeningLine
	}
	if in.Voice != nil {
		c.Voice = strings.ToLower(strings.TrimSpace(*in.Voice))
	}
	if in.Speed != nil {
		c.Speed = strings.ToLower(strings.TrimSpace(*in.Speed))
	}
	if in.Tone != nil {
		c.Tone = strings.ToLower(strings.TrimSpace(*in.Tone))
	}
	if in.Language != nil {
		c.Language = strings.TrimSpace(*in.Language)
	}
	if in.MaxDurationSeconds != nil {
		c.MaxDurationSeconds = *in.MaxDurationSeconds
	}
	if in.Temperature != nil {
		c.Temperature = *in.Temperature
	}
	if in.WaitForGreeting != nil {
		c.WaitForGreeting = *in.WaitForGreeting
	}
	if in.RecordCalls != nil {
		c.RecordCalls = *in.RecordCalls
	}
	if in.IntentActions != nil {
		c.IntentActions = maps.Clone(*in.IntentActions)
	}
	if c.IntentActions == nil {
		c.IntentActions = map[string]IntentAction{}
	}
	return c, validate(c)
}

func validate(c Config) error {
	switch {
	case !slices.Contains(Voices, c.Voice):
		return apperr.Validation("voice", "voice must be one of %s", strings.Join(Voices, ", "))
	case !slices.Contains(Speeds, c.Speed):
		return apperr.Validation("speed", "speed must be one of %s", strings.Join(Speeds, ", "))
	case !slices.Contains(Tones, c.Tone):
		return apperr.Validation("tone", "tone must be one of %s", strings.Join(Tones, ", "))
	case c.Language == "":
		return apperr.Validation("language", "language is required")
	case c.MaxDurationSeconds < MinDurationSeconds || c.MaxDurationSeconds > MaxDurationSeconds:
		return apperr.Validation("max_duration_seconds", "max duration must be between %d and %d seconds", MinDurationSeconds, MaxDurationSeconds)
	case c.Temperature < 0 || c.Temperature > 1:
		return apperr.Validation("temperature", "temperature must be between 0 and 1")
	}
	for intent, a := range c.IntentActions {
		if strings.TrimSpace(intent) == "" || strings.TrimSpace(a.Action) == "" {
			return apperr.Validation("intent_actions", "intent actions need a name and an action")
		}
	}
	return nil
}
