package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/handler/dto"
	"github.com/yourusername/questionbank-api/internal/handler/helper"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
	"github.com/yourusername/questionbank-api/internal/pkg/logger"
	"github.com/yourusername/questionbank-api/internal/service"
)

// QuestionHandler обрабатывает публичные запросы поиска и выборки вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
	reportService   *service.ReportService
	log             *zap.Logger
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(
	questionService *service.QuestionService,
	reportService *service.ReportService,
	log *zap.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		reportService:   reportService,
		log:             logger.OrNop(log).Named("http"),
	}
}

// Search выполняет поиск по вопросам
// GET /api/query
func (h *QuestionHandler) Search(c *gin.Context) {
	var q dto.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params, err := q.ToParams()
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, h.questionService.Search(c.Request.Context(), params))
}

// GetPacket возвращает вопросы одного пакета
// GET /api/packet
func (h *QuestionHandler) GetPacket(c *gin.Context) {
	var q dto.PacketQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params, err := q.ToParams()
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	packet, err := h.questionService.GetPacket(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, packet)
}

// GetSet возвращает вопросы сета одного типа
// GET /api/set
func (h *QuestionHandler) GetSet(c *gin.Context) {
	set, ok := h.loadSet(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewSetResponse(set))
}

// ExportSet выгружает вопросы сета в CSV или XLSX
// GET /api/set/export?format=csv|xlsx
func (h *QuestionHandler) ExportSet(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
		return
	}

	set, ok := h.loadSet(c)
	if !ok {
		return
	}

	rows := make([][]string, 0, set.Len())
	for _, t := range set.Tossups {
		rows = append(rows, helper.TossupRow(t))
	}
	for _, b := range set.Bonuses {
		rows = append(rows, helper.BonusRow(b))
	}

	filename := exportFilename(c.Query("set_name"), set.Kind)
	switch format {
	case "xlsx":
		h.exportXLSX(c, rows, filename)
	default:
		h.exportCSV(c, rows, filename)
	}
}

func (h *QuestionHandler) loadSet(c *gin.Context) (*service.SetQuestions, bool) {
	var q dto.SetQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	params, err := q.ToParams()
	if err != nil {
		handleError(c, h.log, err)
		return nil, false
	}

	set, err := h.questionService.GetSet(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.log, err)
		return nil, false
	}
	return set, true
}

// exportFilename формирует безопасное имя файла экспорта
func exportFilename(setName string, kind entity.QuestionKind) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, setName)
	if name == "" {
		name = "set"
	}
	return fmt.Sprintf("%s_%s_%s", name, kind, time.Now().Format("2006-01-02"))
}

// exportCSV пишет строки в CSV с BOM
func (h *QuestionHandler) exportCSV(c *gin.Context, rows [][]string, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write(helper.ExportHeaders); err != nil {
		h.log.Error("csv header write failed", zap.Error(err))
		return
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			h.log.Error("csv row write failed", zap.Error(err))
			return
		}
	}
}

// exportXLSX пишет строки в Excel через StreamWriter
func (h *QuestionHandler) exportXLSX(c *gin.Context, rows [][]string, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Вопросы"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		h.log.Error("xlsx rename sheet failed", zap.Error(err))
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.log.Error("xlsx stream writer failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	if err := sw.SetRow("A1", toCells(helper.ExportHeaders)); err != nil {
		h.log.Error("xlsx header write failed", zap.Error(err))
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, toCells(row)); err != nil {
			h.log.Error("xlsx row write failed", zap.Int("row", i+2), zap.Error(err))
		}
	}
	if err := sw.Flush(); err != nil {
		h.log.Error("xlsx flush failed", zap.Error(err))
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("xlsx response write failed", zap.Error(err))
	}
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// GetRandomTossups возвращает случайные тоссапы
// GET /api/random-tossup
func (h *QuestionHandler) GetRandomTossups(c *gin.Context) {
	params, ok := bindRandom(c, h.log)
	if !ok {
		return
	}
	tossups, err := h.questionService.GetRandomTossups(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.RandomTossupsResponse{Tossups: tossups})
}

// GetRandomBonuses возвращает случайные бонусы
// GET /api/random-bonus
func (h *QuestionHandler) GetRandomBonuses(c *gin.Context) {
	params, ok := bindRandom(c, h.log)
	if !ok {
		return
	}
	bonuses, err := h.questionService.GetRandomBonuses(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.RandomBonusesResponse{Bonuses: bonuses})
}

func bindRandom(c *gin.Context, log *zap.Logger) (service.RandomParams, bool) {
	var q dto.RandomQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.RandomParams{}, false
	}
	params, err := q.ToParams()
	if err != nil {
		handleError(c, log, err)
		return service.RandomParams{}, false
	}
	return params, true
}

// GetSetList возвращает названия всех сетов
// GET /api/set-list
func (h *QuestionHandler) GetSetList(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SetListResponse{SetList: h.questionService.GetSetList()})
}

// GetNumPackets возвращает число пакетов в сете
// GET /api/num-packets
func (h *QuestionHandler) GetNumPackets(c *gin.Context) {
	n, err := h.questionService.GetNumPackets(c.Request.Context(), c.Query("set_name"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NumPacketsResponse{NumPackets: n})
}

// ReportQuestion принимает жалобу пользователя на вопрос
// POST /api/report-question
func (h *QuestionHandler) ReportQuestion(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	reported, err := h.reportService.ReportQuestion(c.Request.Context(), id, req.Reason, req.Description)
	if err != nil && !reported {
		handleError(c, h.log, err)
		return
	}
	if !reported {
		c.JSON(http.StatusNotFound, dto.ReportResponse{Reported: false})
		return
	}
	c.JSON(http.StatusOK, dto.ReportResponse{Reported: true})
}

// handleError преобразует ошибки сервисов в HTTP-ответы
func handleError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Error("internal server error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
