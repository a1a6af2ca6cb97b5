package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"enculture-be/internal/config"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/repository/contract"
	"enculture-be/internal/repository/implementation"
	"enculture-be/pkg/database"
	"enculture-be/pkg/docstore"
)

// Repositories groups the three document collections.
type Repositories struct {
	Surveys   contract.SurveyRepository
	Responses contract.SurveyResponseRepository
	Threads   contract.ChatThreadRepository
}

func (r *Repositories) verifiable() []contract.Verifiable {
	out := []contract.Verifiable{}
	for _, repo := range []any{r.Surveys, r.Responses, r.Threads} {
		if v, ok := repo.(contract.Verifiable); ok {
			out = append(out, v)
		}
	}
	return out
}

// OpenBackend returns the document backend selected by DATA_BACKEND.
func OpenBackend(cfg config.DataConfig, verbose bool) (docstore.Backend, error) {
	switch cfg.Backend {
	case "", "file":
		return docstore.NewFileBackend(cfg.Dir)
	case database.DriverPostgres, database.DriverSQLite:
		dsn := cfg.Connection
		if cfg.Backend == database.DriverSQLite && dsn == "" {
			dsn = filepath.Join(cfg.Dir, "enculture.db")
		}
		db, err := database.Open(cfg.Backend, dsn, verbose)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
		}
		return docstore.NewGormBackend(db)
	default:
		return nil, fmt.Errorf("unknown DATA_BACKEND %q", cfg.Backend)
	}
}

func NewRepositories(backend docstore.Backend) *Repositories {
	return &Repositories{
		Surveys:   implementation.NewSurveyRepository(backend),
		Responses: implementation.NewSurveyResponseRepository(backend),
		Threads:   implementation.NewChatThreadRepository(backend),
	}
}

// CollectionReport is the outcome of verifying one collection.
type CollectionReport struct {
	Name        string
	Records     int
	Err         error
	Quarantined string
}

// VerifyStore loads every collection. A corrupt document is moved aside when
// recoverCorrupt is set and the backend supports it; otherwise it is reported and
// the returned error wraps docstore.ErrCorrupt.
func VerifyStore(ctx context.Context, repos *Repositories, backend docstore.Backend, recoverCorrupt bool, log logger.ILogger) ([]CollectionReport, error) {
	var (
		reports []CollectionReport
		errs    []error
	)
	for _, v := range repos.verifiable() {
		count, err := v.Verify(ctx)
		report := CollectionReport{Name: v.Name(), Records: count, Err: err}
		if err == nil {
			reports = append(reports, report)
			continue
		}

		q, canQuarantine := backend.(docstore.Quarantiner)
		if !errors.Is(err, docstore.ErrCorrupt) || !recoverCorrupt || !canQuarantine {
			log.Error("Store", "Collection failed verification", map[string]interface{}{
				"collection": v.Name(),
				"error":      err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", v.Name(), err))
			reports = append(reports, report)
			continue
		}

		moved, qerr := q.Quarantine(ctx, v.Name())
		if qerr != nil {
			errs = append(errs, fmt.Errorf("%s: quarantine: %w", v.Name(), qerr))
			reports = append(reports, report)
			continue
		}
		log.Error("Store", "Corrupt collection quarantined, starting empty", map[string]interface{}{
			"collection": v.Name(),
			"moved_to":   moved,
		})
		report.Err = nil
		report.Quarantined = moved
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}
