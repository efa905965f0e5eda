package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/parser"
	"github.com/MoonSoon24/coffee-shop/internal/queue"
	"github.com/MoonSoon24/coffee-shop/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CatalogSource interface {
	ParseCatalog(ctx context.Context, spreadsheetID string) (*parser.Result, error)
}

// ImportService loads the product catalog from a spreadsheet in the background.
type ImportService struct {
	tasks   repo.ImportTaskRepository
	catalog *CatalogService
	source  CatalogSource
	broker  queue.Broker
	logger  *zap.SugaredLogger
}

func NewImportService(
	tasks repo.ImportTaskRepository,
	catalog *CatalogService,
	source CatalogSource,
	broker queue.Broker,
	logger *zap.SugaredLogger,
) *ImportService {
	return &ImportService{
		tasks:   tasks,
		catalog: catalog,
		source:  source,
		broker:  broker,
		logger:  logger,
	}
}

func (s *ImportService) CreateImportTask(ctx context.Context, spreadsheetID string) (primitive.ObjectID, error) {
	task := &domain.ImportTask{
		Status:        domain.StatusQueued,
		SpreadsheetID: spreadsheetID,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create import task: %w", err)
	}

	message := domain.CatalogImportMessage{
		TaskID:        task.ID.Hex(),
		SpreadsheetID: spreadsheetID,
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := s.broker.Publish(ctx, queue.QueueCatalogImport, messageBytes); err != nil {
		_ = s.tasks.UpdateStatus(ctx, task.ID, domain.StatusFailed, err.Error())
		return primitive.NilObjectID, fmt.Errorf("failed to publish message: %w", err)
	}

	s.logger.Infow("import task created", "task_id", task.ID.Hex(), "spreadsheet_id", spreadsheetID)

	return task.ID, nil
}

func (s *ImportService) GetTask(ctx context.Context, taskID primitive.ObjectID) (*domain.ImportTask, error) {
	return s.tasks.GetByID(ctx, taskID)
}

func (s *ImportService) ProcessImportTask(ctx context.Context, taskID primitive.ObjectID) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	if task.Status == domain.StatusCompleted {
		s.logger.Infow("import task already completed", "task_id", taskID.Hex())
		return nil
	}

	if err := s.tasks.UpdateStatus(ctx, taskID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	s.logger.Infow("processing import task", "task_id", taskID.Hex())

	result, err := s.source.ParseCatalog(ctx, task.SpreadsheetID)
	if err != nil {
		s.logger.Errorw("failed to parse catalog", "task_id", taskID.Hex(), "error", err)
		_ = s.tasks.UpdateStatus(ctx, taskID, domain.StatusFailed, err.Error())
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	for _, skipped := range result.Skipped {
		s.logger.Warnw("skipped catalog row", "task_id", taskID.Hex(), "row", skipped.Row, "reason", skipped.Reason)
	}

	imported, rejected, err := s.catalog.Import(ctx, result.Products)
	if err != nil {
		s.logger.Errorw("failed to save catalog", "task_id", taskID.Hex(), "error", err)
		_ = s.tasks.UpdateStatus(ctx, taskID, domain.StatusFailed, err.Error())
		return err
	}

	if len(rejected) > 0 {
		msgs := make([]string, 0, len(rejected))
		for _, r := range rejected {
			msgs = append(msgs, r.Error())
		}
		s.logger.Warnw("rejected catalog products", "task_id", taskID.Hex(), "count", len(rejected), "reasons", strings.Join(msgs, "; "))
	}

	skipped := len(result.Skipped) + len(rejected)
	if err := s.tasks.Complete(ctx, taskID, imported, skipped); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	s.logger.Infow("import task completed", "task_id", taskID.Hex(), "imported", imported, "skipped", skipped)

	return nil
}
