package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/ports"
)

const syncTimeout = 5 * time.Second

// OnboardingStep is one informational screen of the introductory flow.
type OnboardingStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DefaultOnboardingSteps returns the fixed four-step tour shown to new users.
func DefaultOnboardingSteps() []OnboardingStep {
	return []OnboardingStep{
		{
			Title:       "¡Bienvenido a JuthWorks! 🎉",
			Description: "Tu plataforma confiable para servicios de reparación y mantenimiento. Te mostraremos cómo empezar.",
		},
		{
			Title:       "Solicita Servicios 🔧",
			Description: "Navega por nuestros servicios y solicita el que necesites. Recibirás una cotización rápidamente.",
		},
		{
			Title:       "Seguimiento en Tiempo Real 📱",
			Description: "Mantente informado del progreso de tu solicitud desde el panel principal y el historial.",
		},
		{
			Title:       "Soporte Siempre Disponible 💬",
			Description: "¿Tienes dudas? Usa nuestra sección de comentarios y soporte para contactarnos.",
		},
	}
}

// NextStep advances one step, staying on the last one when already there.
func NextStep(step, total int) int {
	if step+1 < total {
		return step + 1
	}
	return total - 1
}

// PreviousStep goes back one step, staying on the first one when already there.
func PreviousStep(step int) int {
	if step > 0 {
		return step - 1
	}
	return 0
}

// OnboardingService walks a new user through the fixed step sequence and
// durably marks completion. Completion is local-first: the session record is
// updated synchronously, the backend is told on a best-effort basis.
type OnboardingService struct {
	sessions ports.SessionStore
	users    ports.UserAPI
	log      zerolog.Logger
	steps    []OnboardingStep
}

func NewOnboardingService(sessions ports.SessionStore, users ports.UserAPI, log zerolog.Logger) *OnboardingService {
	return &OnboardingService{
		sessions: sessions,
		users:    users,
		log:      log,
		steps:    DefaultOnboardingSteps(),
	}
}

// Steps returns the step contents in order.
func (s *OnboardingService) Steps() []OnboardingStep { return s.steps }

// Step returns the session's current step index, clamped to a valid one.
func (s *OnboardingService) Step(ctx context.Context, sid string) (int, error) {
	raw, err := s.sessions.Get(ctx, sid, ports.KeyOnboardingStep)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	if n >= len(s.steps) {
		return len(s.steps) - 1, nil
	}
	return n, nil
}

// Advance moves to the next step and returns the new index.
func (s *OnboardingService) Advance(ctx context.Context, sid string) (int, error) {
	return s.move(ctx, sid, func(n int) int { return NextStep(n, len(s.steps)) })
}

// Back moves to the previous step and returns the new index.
func (s *OnboardingService) Back(ctx context.Context, sid string) (int, error) {
	return s.move(ctx, sid, PreviousStep)
}

func (s *OnboardingService) move(ctx context.Context, sid string, next func(int) int) (int, error) {
	cur, err := s.Step(ctx, sid)
	if err != nil {
		return 0, err
	}
	n := next(cur)
	if err := s.sessions.Set(ctx, sid, ports.KeyOnboardingStep, strconv.Itoa(n)); err != nil {
		return 0, err
	}
	return n, nil
}

// Finish marks onboarding complete: the session's user record gets
// onboarded=1 immediately, then the backend is notified without blocking the
// caller. A failed notification is logged and never surfaced; the user
// proceeds either way, and repeating the call (a stale button, a retry) is
// harmless because marking onboarded twice has the same effect as once.
func (s *OnboardingService) Finish(ctx context.Context, sid, token string) error {
	if err := s.sessions.UpdateUser(ctx, sid, map[string]any{"onboarded": 1}); err != nil {
		return err
	}
	if err := s.sessions.Set(ctx, sid, ports.KeyOnboardingSeen, "true"); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sid, ports.KeyOnboardingStep); err != nil {
		return err
	}
	if token != "" {
		go s.sync(token, true)
	}
	return nil
}

// Reset clears the seen marker and flips the flag back, locally and (best
// effort, but synchronously so the caller can report it) on the backend.
// Returns whether the backend accepted the sync.
func (s *OnboardingService) Reset(ctx context.Context, sid, token string) (synced bool, err error) {
	if err := s.sessions.UpdateUser(ctx, sid, map[string]any{"onboarded": 0}); err != nil {
		return false, err
	}
	if err := s.sessions.Delete(ctx, sid, ports.KeyOnboardingSeen); err != nil {
		return false, err
	}
	if err := s.sessions.Delete(ctx, sid, ports.KeyOnboardingStep); err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	if err := s.users.UpdateOnboarding(ctx, token, false); err != nil {
		s.log.Warn().Err(err).Msg("onboarding reset not synced with backend")
		return false, nil
	}
	return true, nil
}

func (s *OnboardingService) sync(token string, onboarded bool) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	if err := s.users.UpdateOnboarding(ctx, token, onboarded); err != nil {
		s.log.Warn().Err(err).Msg("onboarding state not synced with backend")
	}
}
