package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/handler/dto"
	"github.com/yourusername/questionbank-api/internal/middleware"
	"github.com/yourusername/questionbank-api/internal/pkg/logger"
	"github.com/yourusername/questionbank-api/internal/service"
)

// ModerationHandler обрабатывает запросы модераторов
type ModerationHandler struct {
	questionService *service.QuestionService
	reportService   *service.ReportService
	log             *zap.Logger
}

// NewModerationHandler создает новый обработчик модерации
func NewModerationHandler(
	questionService *service.QuestionService,
	reportService *service.ReportService,
	log *zap.Logger,
) *ModerationHandler {
	return &ModerationHandler{
		questionService: questionService,
		reportService:   reportService,
		log:             logger.OrNop(log).Named("http.admin"),
	}
}

// ListReports возвращает вопросы с жалобами указанной причины
// GET /api/admin/list-reports?reason=...
func (h *ModerationHandler) ListReports(c *gin.Context) {
	reports, err := h.reportService.ListReports(c.Request.Context(), c.Query("reason"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// UpdateSubcategory меняет подкатегорию вопроса
// PUT /api/admin/update-subcategory
func (h *ModerationHandler) UpdateSubcategory(c *gin.Context) {
	var req dto.UpdateSubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}
	kind, err := entity.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.reportService.UpdateSubcategory(c.Request.Context(), service.RecategorizeParams{
		ID:          id,
		Kind:        kind,
		Subcategory: req.Subcategory,
		KeepReports: req.ClearReports != nil && !*req.ClearReports,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	h.log.Info("subcategory updated by moderator",
		zap.String("moderator", c.GetString(middleware.ContextKeyUsername)),
		zap.Stringer("id", id),
		zap.String("subcategory", result.Subcategory),
	)
	c.JSON(http.StatusOK, result)
}

// GetQuestion возвращает вопрос вместе с жалобами
// GET /api/admin/question/:type/:id
func (h *ModerationHandler) GetQuestion(c *gin.Context) {
	kind := c.MustGet("questionKind").(entity.QuestionKind)
	id := c.MustGet("questionID").(uuid.UUID)

	record, err := h.questionService.GetQuestionByID(c.Request.Context(), kind, id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
