// ABOUTME: Pipeline board service for the operations dashboard
// ABOUTME: Groups requests by stage and moves a request to any stage on demand
package pipeline

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

type RequestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
	List(ctx context.Context, filter db.RequestFilter) ([]*models.Request, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage models.PipelineStage) error
}

// Column holds the requests of one stage in creation order.
type Column struct {
	Stage    models.PipelineStage `json:"stage"`
	Requests []*models.Request    `json:"requests"`
}

// Board lists every stage in canonical order, empty ones included.
type Board struct {
	ClientID *string  `json:"client_id,omitempty"`
	Columns  []Column `json:"columns"`
	Total    int      `json:"total"`
}

// Stage returns the requests in stage, or nil for an unknown stage.
func (b *Board) Stage(stage models.PipelineStage) []*models.Request {
	for _, c := range b.Columns {
		if c.Stage == stage {
			return c.Requests
		}
	}
	return nil
}

// Counts maps each stage to its number of requests.
func (b *Board) Counts() map[models.PipelineStage]int {
	counts := make(map[models.PipelineStage]int, len(b.Columns))
	for _, c := range b.Columns {
		counts[c.Stage] = len(c.Requests)
	}
	return counts
}

type Service struct {
	requests RequestStore
	log      *logrus.Entry
}

func NewService(requests RequestStore, logger *logrus.Logger) *Service {
	return &Service{requests: requests, log: logger.WithField("service", "pipeline")}
}

// GetPipeline groups requests by stage. A nil clientID returns every client.
func (s *Service) GetPipeline(ctx context.Context, clientID *string) (*Board, error) {
	requests, err := s.requests.List(ctx, db.RequestFilter{ClientID: clientID})
	if err != nil {
		return nil, errors.Wrap(err, "list requests")
	}

	stages := models.PipelineStages()
	index := make(map[models.PipelineStage]int, len(stages))
	board := &Board{ClientID: clientID, Columns: make([]Column, len(stages))}
	for i, stage := range stages {
		index[stage] = i
		board.Columns[i] = Column{Stage: stage, Requests: []*models.Request{}}
	}

	for _, req := range requests {
		i, ok := index[req.Stage]
		if !ok {
			s.log.WithFields(logrus.Fields{"request_id": req.ID, "stage": req.Stage}).Warn("request has unknown stage")
			continue
		}
		board.Columns[i].Requests = append(board.Columns[i].Requests, req)
		board.Total++
	}

	return board, nil
}

// GetRequest loads a single request.
func (s *Service) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.Request, error) {
	req, err := s.requests.Get(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get request")
	}
	return req, nil
}

// MoveRequest sets the stage of a request. Any known stage is accepted
// regardless of the current one; callers decide who may move what.
func (s *Service) MoveRequest(ctx context.Context, requestID uuid.UUID, newStage string) (*models.Request, error) {
	stage, err := models.ParsePipelineStage(newStage)
	if err != nil {
		return nil, err
	}

	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	err = s.requests.UpdateStage(ctx, requestID, stage)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "update stage")
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"from":       req.Stage,
		"to":         stage,
	}).Info("request moved")

	req.Stage = stage
	return req, nil
}
