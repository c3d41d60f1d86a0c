package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
	"github.com/yourusername/questionbank-api/internal/domain/repository"
	"github.com/yourusername/questionbank-api/internal/metrics"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
	"github.com/yourusername/questionbank-api/internal/pkg/logger"
	"github.com/yourusername/questionbank-api/internal/taxonomy"
)

// RecategorizeParams: параметры исправления подкатегории модератором
type RecategorizeParams struct {
	ID          uuid.UUID
	Kind        entity.QuestionKind
	Subcategory string
	// KeepReports оставляет жалобы на вопросе; по умолчанию они очищаются
	KeepReports bool
}

// RecategorizeResult: итог исправления
type RecategorizeResult struct {
	Matched      int64  `json:"matched"`
	Modified     int64  `json:"modified"`
	StatsUpdated int64  `json:"stats_updated"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
}

// ReportsResult: вопросы с жалобами, для модераторов
type ReportsResult struct {
	Tossups []entity.Tossup `json:"tossups"`
	Bonuses []entity.Bonus  `json:"bonuses"`
}

// ReportService реализует жалобы на вопросы и их исправление модераторами
type ReportService struct {
	store    repository.QuestionStore
	taxonomy *taxonomy.Taxonomy
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// NewReportService создает сервис модерации
func NewReportService(store repository.QuestionStore, tax *taxonomy.Taxonomy, m *metrics.Metrics, log *zap.Logger) *ReportService {
	return &ReportService{
		store:    store,
		taxonomy: tax,
		metrics:  m,
		log:      logger.OrNop(log).Named("moderation"),
		now:      time.Now,
	}
}

// ReportQuestion добавляет жалобу к вопросу. Коллекции имеют общее пространство ID,
// поэтому жалоба записывается в обе; совпадение найдется не более чем в одной.
// Возвращает true, если вопрос найден.
func (s *ReportService) ReportQuestion(ctx context.Context, id uuid.UUID, reason, description string) (bool, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, ErrEmptyReason
	}

	filter := query.And(query.Eq{Field: query.FieldID, Value: id})
	update := query.Update{
		Push: map[string]any{
			query.FieldReports: entity.Report{Reason: reason, Description: description},
		},
	}

	var (
		errs    *multierror.Error
		matched int64
	)
	for _, kind := range []entity.QuestionKind{entity.KindTossup, entity.KindBonus} {
		writer, err := s.store.Writer(kind)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		res, err := writer.UpdateOne(ctx, filter, update)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to report %s %s: %w", kind, id, err))
			continue
		}
		matched += res.Matched
	}

	if err := errs.ErrorOrNil(); err != nil {
		s.log.Error("report question failed", zap.Stringer("id", id), zap.Error(err))
		return matched > 0, err
	}

	if matched > 0 {
		s.metrics.IncReport(reason)
		s.log.Info("question reported", zap.Stringer("id", id), zap.String("reason", reason))
	}
	return matched > 0, nil
}

// UpdateSubcategory меняет подкатегорию вопроса, выводит категорию из таксономии
// и переносит новые значения во все записи статистики этого вопроса в одной транзакции.
// Неизвестная подкатегория возвращает ErrUnknownSubcategory без изменений в хранилище.
func (s *ReportService) UpdateSubcategory(ctx context.Context, p RecategorizeParams) (*RecategorizeResult, error) {
	category, ok := s.taxonomy.CategoryOf(p.Subcategory)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSubcategory, p.Subcategory)
	}
	if p.Kind != entity.KindTossup && p.Kind != entity.KindBonus {
		return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, p.Kind)
	}

	update := query.Update{
		Set: map[string]any{
			query.FieldCategory:    category,
			query.FieldSubcategory: p.Subcategory,
			query.FieldUpdatedAt:   s.now(),
		},
	}
	if !p.KeepReports {
		update.Unset = []string{query.FieldReports}
	}

	result := &RecategorizeResult{Category: category, Subcategory: p.Subcategory}

	err := s.store.WithinTx(ctx, func(tx repository.QuestionStore) error {
		writer, err := tx.Writer(p.Kind)
		if err != nil {
			return err
		}
		res, err := writer.UpdateOne(ctx, query.And(query.Eq{Field: query.FieldID, Value: p.ID}), update)
		if err != nil {
			return fmt.Errorf("failed to update %s %s: %w", p.Kind, p.ID, err)
		}
		if res.Matched == 0 {
			return fmt.Errorf("%s %s: %w", p.Kind, p.ID, apperrors.ErrNotFound)
		}
		result.Matched, result.Modified = res.Matched, res.Modified

		stats, err := tx.Stats(p.Kind)
		if err != nil {
			return err
		}
		statsRes, err := stats.UpdateMany(ctx,
			query.And(query.Eq{Field: query.FieldStatQuestionID, Value: p.ID}),
			query.Update{Set: map[string]any{
				query.FieldCategory:    category,
				query.FieldSubcategory: p.Subcategory,
			}},
		)
		if err != nil {
			return fmt.Errorf("failed to propagate category to %s stats: %w", p.Kind, err)
		}
		result.StatsUpdated = statsRes.Matched
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveRecategorization(string(p.Kind), result.StatsUpdated)
	s.log.Info("question recategorized",
		zap.Stringer("id", p.ID),
		zap.String("type", string(p.Kind)),
		zap.String("category", category),
		zap.String("subcategory", p.Subcategory),
		zap.Bool("reports_cleared", !p.KeepReports),
		zap.Int64("stats_updated", result.StatsUpdated),
	)
	return result, nil
}

// ListReports возвращает вопросы с жалобами указанной причины, новые сеты первыми
func (s *ReportService) ListReports(ctx context.Context, reason string) (*ReportsResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	pipeline := query.Pipeline{
		Match:          query.And(query.Eq{Field: query.FieldReportReason, Value: reason}),
		Sort:           []query.SortKey{{Field: query.FieldSetYear, Desc: true}},
		IncludeReports: true,
	}

	result := &ReportsResult{Tossups: []entity.Tossup{}, Bonuses: []entity.Bonus{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tossups, err := s.store.Tossups().Find(gctx, pipeline)
		if err != nil {
			return fmt.Errorf("failed to list reported tossups: %w", err)
		}
		if tossups != nil {
			result.Tossups = tossups
		}
		return nil
	})
	g.Go(func() error {
		bonuses, err := s.store.Bonuses().Find(gctx, pipeline)
		if err != nil {
			return fmt.Errorf("failed to list reported bonuses: %w", err)
		}
		if bonuses != nil {
			result.Bonuses = bonuses
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
