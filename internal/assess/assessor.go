package assess

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"deal-qualifier/internal/llm"
	"deal-qualifier/internal/metrics"
	"deal-qualifier/internal/secrets"
)

// Service produces a verdict for a payload. Implementations never fail:
// faults on the LLM path degrade to the heuristic scorer.
type Service interface {
	Assess(ctx context.Context, p Payload) Outcome
}

// Fallback reasons, recorded on Outcome.Reason and the fallback counter.
const (
	ReasonMissingKey        = "missing_key"
	ReasonSecretLookup      = "secret_lookup"
	ReasonProviderInit      = "provider_init"
	ReasonRequestFailed     = "request_failed"
	ReasonHTTPStatus        = "http_status"
	ReasonMalformedResponse = "malformed_response"
	ReasonParseFailed       = "parse_failed"
)

// Config selects the provider and model. Empty values take the llm defaults.
type Config struct {
	Provider string
	Model    string
}

// ProviderFactory builds a provider; llm.NewProvider bound to options fits.
type ProviderFactory func(name, model, apiKey string) (llm.Provider, error)

// Assessor runs the single-call LLM pipeline with heuristic fallback.
type Assessor struct {
	cfg     Config
	secrets secrets.Store
	factory ProviderFactory
	log     *slog.Logger
}

func NewAssessor(cfg Config, store secrets.Store, factory ProviderFactory, log *slog.Logger) *Assessor {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = llm.DefaultProvider
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel(cfg.Provider)
	}
	return &Assessor{cfg: cfg, secrets: store, factory: factory, log: log}
}

// APIKeySecretName is the secret holding the key for provider.
func APIKeySecretName(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func (a *Assessor) Assess(ctx context.Context, p Payload) Outcome {
	key, err := a.secrets.Get(ctx, APIKeySecretName(a.cfg.Provider))
	switch {
	case errors.Is(err, secrets.ErrNotFound) && a.cfg.Provider == llm.DefaultProvider:
		// No key for the default provider is a supported mode, not a fault.
		metrics.AssessmentsTotal.WithLabelValues(string(SourceHeuristic)).Inc()
		return Outcome{Result: Heuristic(p.Scores), Source: SourceHeuristic}
	case errors.Is(err, secrets.ErrNotFound):
		return a.fallback(p, ReasonMissingKey, err)
	case err != nil:
		return a.fallback(p, ReasonSecretLookup, err)
	}

	provider, err := a.factory(a.cfg.Provider, a.cfg.Model, key.Text())
	if err != nil {
		return a.fallback(p, ReasonProviderInit, err)
	}

	start := time.Now()
	text, err := provider.Complete(ctx, BuildPrompt(p))
	metrics.LLMRequestDuration.WithLabelValues(a.cfg.Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		var statusErr *llm.StatusError
		switch {
		case errors.As(err, &statusErr):
			return a.fallback(p, ReasonHTTPStatus, err)
		case errors.Is(err, llm.ErrMalformedResponse):
			return a.fallback(p, ReasonMalformedResponse, err)
		default:
			return a.fallback(p, ReasonRequestFailed, err)
		}
	}

	result, status := ParseOrDefault(text)
	metrics.LLMParseTotal.WithLabelValues(string(status)).Inc()
	switch status {
	case ParseFallback:
		return a.fallback(p, ReasonParseFailed, errors.New("no JSON object in model output"))
	case ParsePartial:
		a.log.Warn("llm output partially parsed; defaults applied", "provider", a.cfg.Provider, "model", a.cfg.Model)
	}

	metrics.AssessmentsTotal.WithLabelValues(string(SourceLLM)).Inc()
	return Outcome{Result: result, Source: SourceLLM}
}

func (a *Assessor) fallback(p Payload, reason string, err error) Outcome {
	a.log.Warn("llm assessment failed; using heuristic",
		"provider", a.cfg.Provider, "model", a.cfg.Model, "reason", reason, "err", err)
	metrics.LLMFallbacksTotal.WithLabelValues(reason).Inc()
	metrics.AssessmentsTotal.WithLabelValues(string(SourceFallback)).Inc()
	return Outcome{Result: Heuristic(p.Scores), Source: SourceFallback, Reason: reason}
}
