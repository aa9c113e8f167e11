// Package plan provides the application layer that turns a health profile into
// a validated, persisted supplement plan
package plan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/application/engine"
	"github.com/wellpack/engine/internal/domain/health"
	domain "github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/domain/reference"
	"github.com/wellpack/engine/internal/ports/outbound"
)

const tracerName = "github.com/wellpack/engine/internal/application/plan"

// Config holds the assembler settings
type Config struct {
	PackSize           int
	GenerationTimeout  time.Duration
	InteractionPolicy  engine.InteractionPolicy
	BackfillConfidence int
	Tiers              engine.TierThresholds
}

// Metrics receives assembly outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	PlanAssembled(source domain.Source, tier domain.Tier, duration time.Duration)
	AssemblyFailed(stage domain.Stage)
	GeneratorFallback(reason string)
	ValidatorReport(report engine.Report)
	InvariantViolation(invariant string)
}

type nopMetrics struct{}

func (nopMetrics) PlanAssembled(domain.Source, domain.Tier, time.Duration) {}
func (nopMetrics) AssemblyFailed(domain.Stage) {}
func (nopMetrics) GeneratorFallback(string) {}
func (nopMetrics) ValidatorReport(engine.Report) {}
func (nopMetrics) InvariantViolation(string) {}

// Assembler orchestrates detection, generation, filtering and validation into a Plan.
// It holds no per-request state and is safe for concurrent use.
type Assembler struct {
	catalog    *reference.Catalog
	matcher    reference.TextSignalMatcher
	detector   *engine.PatternDetector
	priorities *engine.PriorityResolver
	filter     *engine.ContraindicationFilter
	validator  *engine.CandidateValidator
	tiers      *engine.TierClassifier

	generator outbound.CandidateGenerator
	products  outbound.ProductCatalog

	packSize int
	timeout  time.Duration

	logger  *zap.Logger
	metrics Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// AssemblerOption customizes an Assembler
type AssemblerOption func(*Assembler)

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) AssemblerOption {
	return func(a *Assembler) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) AssemblerOption {
	return func(a *Assembler) { a.tracer = t }
}

// WithClock overrides the plan timestamp source
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

// WithMatcher swaps the text matcher used by every engine component
func WithMatcher(m reference.TextSignalMatcher) AssemblerOption {
	return func(a *Assembler) { a.matcher = m }
}

// NewAssembler wires the engine components over the reference data.
// generator and products may be nil: without a generator every plan is built by the
// deterministic fallback, without products recommendations stay unbound.
func NewAssembler(
	data *reference.Data,
	generator outbound.CandidateGenerator,
	products outbound.ProductCatalog,
	cfg Config,
	logger *zap.Logger,
	opts ...AssemblerOption,
) *Assembler {
	a := &Assembler{
		catalog:   data.Catalog(),
		generator: generator,
		products:  products,
		packSize:  cfg.PackSize,
		timeout:   cfg.GenerationTimeout,
		logger:    logger.Named("plan-assembler"),
		metrics:   nopMetrics{},
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.packSize <= 0 {
		a.packSize = domain.DefaultPackSize
	}
	if a.timeout <= 0 {
		a.timeout = 20 * time.Second
	}

	a.detector = engine.NewPatternDetector(data, a.matcher)
	a.priorities = engine.NewPriorityResolver(data.Catalog(), a.matcher)
	a.filter = engine.NewContraindicationFilter(data, a.matcher)
	a.validator = engine.NewCandidateValidator(data,
		engine.WithInteractionPolicy(cfg.InteractionPolicy),
		engine.WithBackfillConfidence(cfg.BackfillConfidence),
	)
	a.tiers = engine.NewTierClassifier(cfg.Tiers)
	return a
}

// PackSize returns the configured number of items per plan
func (a *Assembler) PackSize() int {
	return a.packSize
}

// Assemble runs the full pipeline for one profile.
// Nothing is persisted here; an abandoned context leaves no side effects.
func (a *Assembler) Assemble(ctx context.Context, userID uuid.UUID, profile health.Profile) (*domain.Plan, error) {
	start := a.now()
	ctx, span := a.tracer.Start(ctx, "plan.Assemble")
	defer span.End()

	var progress domain.Progress
	fail := func(err error) (*domain.Plan, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.metrics.AssemblyFailed(progress.Current())
		return nil, &domain.StageError{Stage: progress.Current(), Err: err}
	}

	tier := a.tiers.ClassifyProfile(profile)
	span.SetAttributes(attribute.String("plan.tier", string(tier)))

	detection := a.detector.Detect(profile)
	if err := progress.Advance(domain.StagePatternsDetected); err != nil {
		return fail(err)
	}

	priorities := a.priorities.BuildLayered(engine.PrioritySignals{
		PrimaryConcern: profile.PrimaryHealthConcern,
		LabText:        profile.LabText(),
		Conditions:     profile.ActiveConditions(),
		Patterns:       detection.Patterns,
	})
	forbidden := a.filter.Forbidden(profile.ActiveConditions(), detection.Excess)
	if err := progress.Advance(domain.StagePrioritiesBuilt); err != nil {
		return fail(err)
	}

	candidates, source, err := a.obtainCandidates(ctx, profile, tier, detection, forbidden, priorities)
	if err != nil {
		return fail(err)
	}
	if err := progress.Advance(domain.StageCandidatesObtained); err != nil {
		return fail(err)
	}

	candidates, dropped := a.dropForbidden(candidates, forbidden)
	if err := progress.Advance(domain.StageFiltered); err != nil {
		return fail(err)
	}

	recs, report, err := a.validator.Resolve(candidates, forbidden, priorities, a.packSize)
	report.Filtered = append(dropped, report.Filtered...)
	a.metrics.ValidatorReport(report)
	if err != nil {
		var inv *domain.InvariantError
		if errors.As(err, &inv) {
			a.metrics.InvariantViolation(inv.Invariant)
			a.logger.Error("Resolved pack failed invariant re-check",
				zap.Bool("invariant_violation", true),
				zap.String("invariant", inv.Invariant),
				zap.String("detail", inv.Detail),
			)
		}
		return fail(err)
	}
	if err := progress.Advance(domain.StageValidated); err != nil {
		return fail(err)
	}

	a.logger.Debug("Candidates resolved",
		zap.String("source", string(source)),
		zap.Strings("unresolved", report.Unresolved),
		zap.Strings("filtered", report.Filtered),
		zap.Int("conflicts", len(report.Conflicts)),
		zap.Strings("backfilled", report.Backfilled),
		zap.Strings("trimmed", report.Trimmed),
	)

	recs = fillReasons(recs, detection)
	recs = a.bindProducts(ctx, recs)

	p := &domain.Plan{
		ID:                uuid.New(),
		UserID:            userID,
		Tier:              tier,
		Source:            source,
		Recommendations:   recs,
		GeneralNotes:      composeGeneralNotes(tier, source, detection),
		Contraindications: composeContraindications(forbidden, detection),
		Patterns:          detection.Patterns,
		ExcessPatterns:    detection.Excess,
		CreatedAt:         a.now(),
	}
	if err := progress.Advance(domain.StageAssembled); err != nil {
		return fail(err)
	}

	elapsed := a.now().Sub(start)
	a.metrics.PlanAssembled(source, tier, elapsed)
	span.SetAttributes(
		attribute.String("plan.source", string(source)),
		attribute.Int("plan.patterns", len(detection.Patterns)),
	)
	a.logger.Info("Plan assembled",
		zap.String("plan_id", p.ID.String()),
		zap.String("tier", string(tier)),
		zap.String("source", string(source)),
		zap.Int("patterns", len(detection.Patterns)),
		zap.Int("forbidden", len(forbidden)),
		zap.Duration("duration", elapsed),
	)
	return p, nil
}

// obtainCandidates calls the generator under a timeout and falls back to the
// deterministic pattern-based candidates when it fails
func (a *Assembler) obtainCandidates(
	ctx context.Context,
	profile health.Profile,
	tier domain.Tier,
	detection engine.Detection,
	forbidden engine.ForbiddenSet,
	priorities domain.PriorityMap,
) ([]domain.Candidate, domain.Source, error) {
	if a.generator == nil {
		a.metrics.GeneratorFallback("not_configured")
		return fallbackCandidates(detection), domain.SourceFallback, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	genCtx, span := a.tracer.Start(genCtx, "plan.Generate",
		trace.WithAttributes(attribute.String("generator", a.generator.Name())))
	defer span.End()

	payload, err := a.generator.Generate(genCtx, outbound.GenerationRequest{
		Profile:   profile,
		Tier:      tier,
		PackSize:  a.packSize,
		Patterns:  detection.Patterns,
		Excess:    detection.Excess,
		Forbidden: forbiddenNames(a.catalog, forbidden),
		Preferred: preferredNames(a.catalog, priorities),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		span.RecordError(err)
		a.metrics.GeneratorFallback(reason)
		a.logger.Warn("Candidate generation unavailable, using deterministic fallback",
			zap.String("generator", a.generator.Name()),
			zap.String("reason", reason),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)),
		)
		return fallbackCandidates(detection), domain.SourceFallback, nil
	}

	candidates := domain.ParseCandidates(payload)
	if len(candidates) == 0 {
		a.logger.Warn("Generator payload contained no usable candidates",
			zap.String("generator", a.generator.Name()),
			zap.Int("payload_bytes", len(payload)),
		)
	}
	return candidates, domain.SourceGenerator, nil
}

// dropForbidden removes candidates that resolve to forbidden items and returns their names
func (a *Assembler) dropForbidden(candidates []domain.Candidate, forbidden engine.ForbiddenSet) ([]domain.Candidate, []string) {
	out := make([]domain.Candidate, 0, len(candidates))
	var dropped []string
	for _, c := range candidates {
		name := c.Name
		if item, ok := a.catalog.Resolve(c.Name); ok {
			name = item.Name
		}
		if forbidden.Contains(name) {
			dropped = append(dropped, name)
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}

// fallbackCandidates builds candidates purely from detected patterns and excess suggestions
func fallbackCandidates(d engine.Detection) []domain.Candidate {
	var out []domain.Candidate
	for _, p := range d.Patterns {
		for _, item := range p.SynergisticItems {
			out = append(out, domain.Candidate{
				Name:       item,
				Reason:     "Supports " + p.Name + ".",
				Confidence: p.Confidence,
			})
		}
	}
	for _, x := range d.Excess {
		for _, item := range x.Suggest {
			out = append(out, domain.Candidate{
				Name:       item,
				Reason:     "Calming alternative given signs of " + x.Neurotransmitter + " excess.",
				Confidence: engine.DefaultBackfillConfidence + 10,
			})
		}
	}
	return out
}

func forbiddenNames(catalog *reference.Catalog, forbidden engine.ForbiddenSet) []string {
	var names []string
	for _, item := range catalog.Items() {
		if forbidden.Contains(item.Name) {
			names = append(names, item.Name)
		}
	}
	return names
}

// preferredNames lists prioritized items, highest priority first
func preferredNames(catalog *reference.Catalog, priorities domain.PriorityMap) []string {
	var names []string
	for _, item := range catalog.Items() {
		if priorities.Of(item.Name) > 0 {
			names = append(names, item.Name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return priorities.Of(names[i]) > priorities.Of(names[j])
	})
	return names
}
