package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/wisbric/skywatch/internal/clock"
	"github.com/wisbric/skywatch/internal/domain"
	"github.com/wisbric/skywatch/internal/feeds"
	"github.com/wisbric/skywatch/internal/repository"
	"github.com/wisbric/skywatch/internal/telemetry"
	"github.com/wisbric/skywatch/internal/uow"
)

// smallBodyFetcher is the subset of *feeds.SmallBodyClient the pipeline
// needs, narrowed so tests can substitute a fake.
type smallBodyFetcher interface {
	FetchHazardous(ctx context.Context, limit int) ([]domain.AsteroidRecord, error)
}

// closeApproachFetcher is the subset of *feeds.CloseApproachClient the
// pipeline needs.
type closeApproachFetcher interface {
	FetchApproaches(ctx context.Context, ids []string, window feeds.DateWindow, maxAU float64) (map[string][]domain.ApproachRecord, error)
}

// impactRiskFetcher is the subset of *feeds.ImpactRiskClient the pipeline
// needs.
type impactRiskFetcher interface {
	FetchAll(ctx context.Context) ([]domain.ThreatRecord, error)
}

// Pipeline runs the daily ingestion-and-reconciliation update described in
// spec.md §4.6.
type Pipeline struct {
	SmallBody     smallBodyFetcher
	CloseApproach closeApproachFetcher
	ImpactRisk    impactRiskFetcher
	Pool          *pgxpool.Pool
	Logger        *slog.Logger
	Cfg           Config
}

// NewPipeline constructs a Pipeline from concrete feed clients.
func NewPipeline(sb *feeds.SmallBodyClient, ca *feeds.CloseApproachClient, ir *feeds.ImpactRiskClient, pool *pgxpool.Pool, logger *slog.Logger, cfg Config) *Pipeline {
	return &Pipeline{SmallBody: sb, CloseApproach: ca, ImpactRisk: ir, Pool: pool, Logger: logger, Cfg: cfg}
}

// Run executes one full update cycle. A failure in stages 1-6 aborts the
// run and returns an error report without pruning; stage 7 (pruning) runs
// only after stages 1-6 succeed, in two independent transactions of its
// own, so a partial prune never undoes earlier stages.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := clock.Now()
	runID := newRunID(start)
	log := p.Logger.With("run_id", runID)

	log.Info("ingestion run starting")

	records, err := p.SmallBody.FetchHazardous(ctx, p.Cfg.SmallBodyLimit)
	if err != nil {
		return p.abort(runID, start, err, log)
	}
	if len(records) == 0 {
		log.Warn("small-body feed returned no records")
		return emptyReport(runID, start), nil
	}

	pha := filterPHA(records)
	if len(pha) == 0 {
		log.Warn("no potentially hazardous asteroids in this batch")
		return emptyReport(runID, start), nil
	}

	created, updated, err := p.upsertAsteroids(ctx, pha)
	if err != nil {
		return p.abort(runID, start, err, log)
	}
	log.Info("asteroids upserted", "created", created, "updated", updated)

	targets := pha
	if p.Cfg.MaxAsteroidsPerRun > 0 && len(targets) > p.Cfg.MaxAsteroidsPerRun {
		targets = targets[:p.Cfg.MaxAsteroidsPerRun]
	}

	approaches, err := p.computeApproaches(ctx, targets, log)
	if err != nil {
		return p.abort(runID, start, err, log)
	}

	saved, withThreats, err := p.upsertApproachesAndThreats(ctx, runID, approaches, log)
	if err != nil {
		return p.abort(runID, start, err, log)
	}

	pruneStats := p.prune(ctx, log)

	end := clock.Now()
	duration := end.Sub(start)
	report := &Report{
		UpdateID:  runID,
		Status:    StatusSuccess,
		StartedAt: start,
		EndedAt:   end,
		Duration:  duration,
		Asteroids: AsteroidStats{
			Total:    len(records),
			PHACount: len(pha),
			Created:  created,
			Updated:  updated,
		},
		Approaches: ApproachStats{
			Computed:    countApproaches(approaches),
			Saved:       saved,
			WithThreats: withThreats,
		},
		Pruning: pruneStats,
	}
	if duration > 0 {
		report.AsteroidsPerSecond = float64(created+updated) / duration.Seconds()
	}

	log.Info("ingestion run complete",
		"duration", duration,
		"created", created,
		"updated", updated,
		"approaches_saved", saved,
	)

	p.recordMetrics(report)
	p.recordAudit(ctx, report, log)
	return report, nil
}

// recordMetrics updates the package-level Prometheus collectors from a
// finished run's report.
func (p *Pipeline) recordMetrics(report *Report) {
	telemetry.IngestionDuration.Observe(report.Duration.Seconds())
	telemetry.IngestionRunsTotal.WithLabelValues(report.Status).Inc()
	telemetry.AsteroidsUpsertedTotal.WithLabelValues("created").Add(float64(report.Asteroids.Created))
	telemetry.AsteroidsUpsertedTotal.WithLabelValues("updated").Add(float64(report.Asteroids.Updated))
	telemetry.ApproachesUpsertedTotal.Add(float64(report.Approaches.Saved))
	telemetry.ThreatsUpsertedTotal.Add(float64(report.Approaches.WithThreats))
}

// recordAudit persists the run's report as an IngestionRun row, outside
// the transactional scope of stages 1-7. A failure to persist it is
// logged, never returned: the audit trail is a reporting side-effect, not
// a correctness-critical write.
func (p *Pipeline) recordAudit(ctx context.Context, report *Report, log *slog.Logger) {
	var errMsg *string
	if report.Error != "" {
		errMsg = &report.Error
	}
	run := domain.IngestionRun{
		RunID:                 report.UpdateID,
		Status:                report.Status,
		StartedAt:             report.StartedAt,
		FinishedAt:            report.EndedAt,
		AsteroidsTotal:        report.Asteroids.Total,
		AsteroidsPHA:          report.Asteroids.PHACount,
		AsteroidsCreated:      report.Asteroids.Created,
		AsteroidsUpdated:      report.Asteroids.Updated,
		ApproachesComputed:    report.Approaches.Computed,
		ApproachesSaved:       report.Approaches.Saved,
		ApproachesWithThreats: report.Approaches.WithThreats,
		PrunedPast:            int(report.Pruning.DeletedOld),
		PrunedFarFuture:       int(report.Pruning.DeletedFar),
		ErrorMessage:          errMsg,
	}

	err := uow.Run(ctx, p.Pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		runRepo, rerr := uow.GetRepository(u, repository.NewIngestionRunRepository)
		if rerr != nil {
			return rerr
		}
		_, err := runRepo.Create(ctx, run)
		return err
	})
	if err != nil {
		log.Warn("failed to persist ingestion run audit record", "error", err)
	}
}

func (p *Pipeline) abort(runID string, start time.Time, err error, log *slog.Logger) (*Report, error) {
	end := clock.Now()
	log.Error("ingestion run aborted", "error", err)
	report := errorReport(runID, start, end, err)
	telemetry.IngestionRunsTotal.WithLabelValues(report.Status).Inc()
	// A cancelled or deadline-exceeded ctx is exactly the kind of failure
	// that lands here, so the audit write uses a fresh background context
	// rather than the one that just failed.
	p.recordAudit(context.Background(), report, log)
	return report, err
}

func filterPHA(records []domain.AsteroidRecord) []domain.AsteroidRecord {
	out := make([]domain.AsteroidRecord, 0, len(records))
	for _, r := range records {
		if domain.PHAFilter(r) {
			out = append(out, r)
		}
	}
	return out
}

func (p *Pipeline) upsertAsteroids(ctx context.Context, pha []domain.AsteroidRecord) (created, updated int, err error) {
	items := make([]domain.Asteroid, 0, len(pha))
	for _, r := range pha {
		a, err := domain.NewAsteroid(r.Designation, r.AbsoluteMagnitude, r.EstimatedDiameterKm, r.AccurateDiameter, r.Albedo, orDefault(r.DiameterSource))
		if err != nil {
			continue
		}
		a.Name = r.Name
		a.OrbitID = r.OrbitID
		a.OrbitClass = r.OrbitClass
		if err := a.SetOrbit(r.PerihelionAU, r.AphelionAU, r.EarthMOIDAU); err != nil {
			continue
		}
		items = append(items, *a)
	}

	err = uow.Run(ctx, p.Pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		var txErr error
		created, updated, txErr = u.AsteroidRepo.BulkCreate(ctx, items, repository.OnConflictUpdate)
		return txErr
	})
	return created, updated, err
}

func orDefault(source string) string {
	if source == "" {
		return domain.DiameterSourceCalculated
	}
	return source
}

func countApproaches(byDesignation map[string][]domain.ApproachRecord) int {
	n := 0
	for _, recs := range byDesignation {
		n += len(recs)
	}
	return n
}

// computeApproaches fans out per-asteroid close-approach lookups across a
// bounded worker pool, honoring a minimum inter-call delay per worker, per
// spec.md §4.6 stage 4.
func (p *Pipeline) computeApproaches(ctx context.Context, targets []domain.AsteroidRecord, log *slog.Logger) (map[string][]domain.ApproachRecord, error) {
	designations := make([]string, len(targets))
	for i, t := range targets {
		designations[i] = t.Designation
	}

	window := feeds.DateWindow{Start: clock.Now(), End: clock.Now().Add(p.Cfg.ApproachWindow)}

	jobs := make(chan string)
	results := make(chan map[string][]domain.ApproachRecord)

	g, gctx := errgroup.WithContext(ctx)
	workers := p.Cfg.ApproachWorkers
	if workers <= 0 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			first := true
			for des := range jobs {
				if !first {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(p.Cfg.InterCallDelay):
					}
				}
				first = false

				found, err := p.CloseApproach.FetchApproaches(gctx, []string{des}, window, p.Cfg.MaxApproachDistanceAU)
				if err != nil {
					log.Warn("close-approach lookup failed", "designation", des, "error", err)
					continue
				}
				select {
				case results <- found:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		defer close(jobs)
		for _, des := range designations {
			select {
			case jobs <- des:
			case <-gctx.Done():
				return
			}
		}
	}()

	merged := make(map[string][]domain.ApproachRecord)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for found := range results {
			for des, recs := range found {
				merged[des] = append(merged[des], recs...)
			}
		}
	}()

	err := g.Wait()
	close(results)
	<-done
	if err != nil {
		return nil, fmt.Errorf("computing close approaches: %w", err)
	}
	return merged, nil
}

// approachStepData is what the "upsert_approaches" workflow step hands
// the "upsert_threats" step that follows it: the designation→id mapping
// and the peak approach velocity observed per asteroid, both needed to
// derive a ThreatAssessment without re-resolving anything.
type approachStepData struct {
	idByDesignation map[string]int64
	maxVelocity     map[int64]float64
}

// upsertApproachesAndThreats implements spec.md §4.6 stages 5-6: resolve
// designations to asteroid ids, stamp and bulk-upsert approaches, then
// derive and bulk-upsert threat assessments for newly-assessed asteroids.
// The two stages run as a uow.Workflow of named steps within one
// UnitOfWork: grounded on
// original_source/shared/transaction/coordinator.py's
// execute_complex_workflow, which the Go Workflow/Step types mirror.
func (p *Pipeline) upsertApproachesAndThreats(ctx context.Context, runID string, byDesignation map[string][]domain.ApproachRecord, log *slog.Logger) (saved, withThreats int, err error) {
	designations := make([]string, 0, len(byDesignation))
	for des := range byDesignation {
		designations = append(designations, des)
	}

	threatRecords, terr := p.ImpactRisk.FetchAll(ctx)
	if terr != nil {
		log.Warn("impact-risk feed unavailable, deriving threats locally", "error", terr)
	}
	threatByDesignation := make(map[string]domain.ThreatRecord, len(threatRecords))
	for _, tr := range threatRecords {
		threatByDesignation[tr.Designation] = tr
	}

	steps := []uow.Step{
		{
			Name: "upsert_approaches",
			Run: func(ctx context.Context, u *uow.UnitOfWork, _ map[string]uow.StepResult) (any, error) {
				idByDesignation, rerr := u.AsteroidRepo.ResolveDesignations(ctx, designations)
				if rerr != nil {
					return nil, fmt.Errorf("resolving asteroid designations: %w", rerr)
				}

				var approachItems []domain.CloseApproach
				maxVelocity := make(map[int64]float64)
				for des, recs := range byDesignation {
					asteroidID, ok := idByDesignation[des]
					if !ok {
						log.Warn("skipping approaches for unknown asteroid", "designation", des)
						continue
					}
					for _, rec := range recs {
						ca, cerr := domain.NewCloseApproach(des, rec.ApproachTime, rec.DistanceAU, rec.DistanceKm, rec.VelocityKmS)
						if cerr != nil {
							continue
						}
						ca.AsteroidID = asteroidID
						ca.AsteroidName = rec.AsteroidName
						batch := runID
						ca.CalculationBatchID = &batch
						approachItems = append(approachItems, *ca)
						if rec.VelocityKmS > maxVelocity[asteroidID] {
							maxVelocity[asteroidID] = rec.VelocityKmS
						}
					}
				}

				approachCreated, approachUpdated, aerr := u.ApproachRepo.BulkCreate(ctx, approachItems, repository.OnConflictUpdate)
				if aerr != nil {
					return nil, fmt.Errorf("bulk upserting close approaches: %w", aerr)
				}
				saved = approachCreated + approachUpdated

				return approachStepData{idByDesignation: idByDesignation, maxVelocity: maxVelocity}, nil
			},
			Rollback: func(_ map[string]uow.StepResult, err error) {
				log.Warn("upsert_approaches step failed, transaction will roll back", "error", err)
			},
		},
		{
			Name: "upsert_threats",
			Run: func(ctx context.Context, u *uow.UnitOfWork, results map[string]uow.StepResult) (any, error) {
				prior := results["upsert_approaches"].Data.(approachStepData)
				idByDesignation, maxVelocity := prior.idByDesignation, prior.maxVelocity

				asteroidIDs := make([]int64, 0, len(idByDesignation))
				for _, id := range idByDesignation {
					asteroidIDs = append(asteroidIDs, id)
				}
				existing, eerr := u.ThreatRepo.ExistingAsteroidIDs(ctx, asteroidIDs)
				if eerr != nil {
					return nil, fmt.Errorf("checking existing threat assessments: %w", eerr)
				}

				var pending []domain.ThreatAssessment
				for des, asteroidID := range idByDesignation {
					if existing[asteroidID] {
						continue
					}
					asteroid, gerr := u.AsteroidRepo.GetByID(ctx, asteroidID)
					if gerr != nil {
						continue
					}
					ta := buildThreatAssessment(asteroid, des, maxVelocity[asteroidID], threatByDesignation[des])
					ta.AsteroidID = asteroidID
					pending = append(pending, ta)

					if len(pending) >= p.Cfg.ThreatChunkSize {
						n, _, terr := u.ThreatRepo.BulkCreate(ctx, pending, repository.OnConflictUpdate)
						if terr != nil {
							return nil, fmt.Errorf("bulk upserting threat assessments: %w", terr)
						}
						withThreats += n
						pending = pending[:0]
					}
				}
				if len(pending) > 0 {
					n, _, terr := u.ThreatRepo.BulkCreate(ctx, pending, repository.OnConflictUpdate)
					if terr != nil {
						return nil, fmt.Errorf("bulk upserting threat assessments: %w", terr)
					}
					withThreats += n
				}
				return nil, nil
			},
			Rollback: func(_ map[string]uow.StepResult, err error) {
				log.Warn("upsert_threats step failed, transaction will roll back", "error", err)
			},
		},
	}

	err = uow.Run(ctx, p.Pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		_, werr := uow.Workflow(ctx, u, steps)
		return werr
	})
	return saved, withThreats, err
}

func buildThreatAssessment(asteroid domain.Asteroid, designation string, approachVelocity float64, tr domain.ThreatRecord) domain.ThreatAssessment {
	diameter := asteroid.EstimatedDiameterKm
	if tr.Diameter > 0 {
		diameter = tr.Diameter
	}
	vInf := approachVelocity
	if tr.VInf > 0 {
		vInf = tr.VInf
	}
	h := asteroid.AbsoluteMagnitude
	if tr.H > 0 {
		h = tr.H
	}

	psMax := tr.PSMax
	if psMax == 0 && tr.TSMax == 0 {
		psMax = -99
	}

	ta, err := domain.NewThreatAssessment(designation, orFullname(tr.Fullname, designation), tr.IP, tr.TSMax, psMax, diameter, vInf, h, tr.NImp, tr.ImpactYears, tr.LastObs)
	if err != nil {
		// A construction invariant failure here means an upstream feed
		// supplied out-of-range data; fall back to a minimal, always-valid
		// assessment rather than dropping the asteroid from this stage.
		ta, _ = domain.NewThreatAssessment(designation, designation, 0, 0, -99, diameter, vInf, h, 0, nil, "")
	}
	return *ta
}

func orFullname(fullname, designation string) string {
	if fullname == "" {
		return designation
	}
	return fullname
}

// prune deletes stale approach rows in two independent transactions, per
// spec.md §4.6 stage 7: a partial failure in one does not affect the
// other.
func (p *Pipeline) prune(ctx context.Context, log *slog.Logger) PruneStats {
	var stats PruneStats

	now := clock.Now()
	oldCutoff := now.Add(-p.Cfg.PruneOlderThan)
	err := uow.Run(ctx, p.Pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		n, err := u.ApproachRepo.BulkDelete(ctx, []repository.Condition{
			{Field: "approach_time", Op: repository.OpLt, Value: oldCutoff},
		})
		stats.DeletedOld = n
		return err
	})
	if err != nil {
		log.Error("pruning old approaches failed", "error", err)
	}

	farCutoff := now.Add(p.Cfg.PruneFartherThan)
	err = uow.Run(ctx, p.Pool, func(ctx context.Context, u *uow.UnitOfWork) error {
		n, err := u.ApproachRepo.BulkDelete(ctx, []repository.Condition{
			{Field: "approach_time", Op: repository.OpGt, Value: farCutoff},
		})
		stats.DeletedFar = n
		return err
	})
	if err != nil {
		log.Error("pruning far-future approaches failed", "error", err)
	}

	return stats
}
