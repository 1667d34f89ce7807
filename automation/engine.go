// ABOUTME: Automation engine that pushes requests through the pipeline
// ABOUTME: One step per call: normalize, dispatch RFQs, or compare quotes depending on status
package automation

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/config"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/normalize"
	"github.com/victor-4502/naova-mvp-sub002/quotes"
	"github.com/victor-4502/naova-mvp-sub002/rfq"
)

type RequestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
	List(ctx context.Context, filter db.RequestFilter) ([]*models.Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, stage models.PipelineStage) error
	UpdateClassification(ctx context.Context, id uuid.UUID, normalized, category string) error
	SaveSpec(ctx context.Context, spec *models.RequestSpec) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.Request) (*rfq.Batch, error)
}

type Comparer interface {
	Compare(ctx context.Context, requestID uuid.UUID) (*quotes.Comparison, error)
}

// Action names what a processing step did.
type Action string

const (
	ActionNone             Action = "none"
	ActionNormalized       Action = "normalized"
	ActionIncomplete       Action = "incomplete"
	ActionRFQSent          Action = "rfq_sent"
	ActionNoSuppliers      Action = "no_suppliers"
	ActionAutoSendDisabled Action = "auto_send_disabled"
	ActionAwaitingQuotes   Action = "awaiting_quotes"
	ActionQuotesCompared   Action = "quotes_compared"
)

// Result describes one processing step.
type Result struct {
	RequestID uuid.UUID            `json:"request_id"`
	Action    Action               `json:"action"`
	Status    models.RequestStatus `json:"status"`
	Stage     models.PipelineStage `json:"stage"`
	Changed   bool                 `json:"changed"`
	Detail    string               `json:"detail,omitempty"`
}

// Failure is a request that could not be processed in a batch.
type Failure struct {
	RequestID uuid.UUID `json:"request_id"`
	Error     string    `json:"error"`
}

// BatchReport summarizes ProcessAllPending.
type BatchReport struct {
	Processed int       `json:"processed"`
	Advanced  int       `json:"advanced"`
	Results   []*Result `json:"results"`
	Failures  []Failure `json:"failures"`
}

type Engine struct {
	requests   RequestStore
	normalizer *normalize.Normalizer
	dispatcher Dispatcher
	comparer   Comparer
	settings   *config.Settings
	log        *logrus.Entry
}

func NewEngine(requests RequestStore, normalizer *normalize.Normalizer, dispatcher Dispatcher, comparer Comparer, settings *config.Settings, logger *logrus.Logger) *Engine {
	return &Engine{
		requests:   requests,
		normalizer: normalizer,
		dispatcher: dispatcher,
		comparer:   comparer,
		settings:   settings,
		log:        logger.WithField("service", "automation"),
	}
}

// ProcessRequest applies one advancement step to a request.
func (e *Engine) ProcessRequest(ctx context.Context, requestID uuid.UUID) (*Result, error) {
	req, err := e.requests.Get(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get request")
	}

	var res *Result
	switch req.Status {
	case models.RequestNew, models.RequestParsing, models.RequestIncomplete:
		res, err = e.normalize(ctx, req)
	case models.RequestReadyForRFQ:
		if e.settings != nil && !e.settings.AutoSendRFQ() {
			res = unchanged(req, ActionAutoSendDisabled, "automatic RFQ sending is off")
		} else {
			res, err = e.sendRFQs(ctx, req)
		}
	case models.RequestRFQSent, models.RequestQuotesReceived:
		res, err = e.compare(ctx, req)
	default:
		res = unchanged(req, ActionNone, "")
	}
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"action":     res.Action,
		"status":     res.Status,
		"stage":      res.Stage,
	}).Debug("request processed")

	return res, nil
}

// ProcessAllPending runs ProcessRequest for every request outside a
// terminal stage, one at a time. A failing request is recorded in the report
// and the batch moves on; only failing to list requests aborts.
func (e *Engine) ProcessAllPending(ctx context.Context) (*BatchReport, error) {
	pending, err := e.requests.List(ctx, db.RequestFilter{ExcludeStages: models.TerminalStages()})
	if err != nil {
		return nil, errors.Wrap(err, "list pending requests")
	}

	report := &BatchReport{Results: []*Result{}, Failures: []Failure{}}
	for _, req := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Processed++
		res, err := e.ProcessRequest(ctx, req.ID)
		if err != nil {
			e.log.WithError(err).WithField("request_id", req.ID).Error("automation failed for request")
			report.Failures = append(report.Failures, Failure{RequestID: req.ID, Error: err.Error()})
			continue
		}
		if res.Changed {
			report.Advanced++
		}
		report.Results = append(report.Results, res)
	}

	e.log.WithFields(logrus.Fields{
		"processed": report.Processed,
		"advanced":  report.Advanced,
		"failed":    len(report.Failures),
	}).Info("automation batch finished")

	return report, nil
}

func (e *Engine) normalize(ctx context.Context, req *models.Request) (*Result, error) {
	out, err := e.normalizer.Normalize(req.RawContent)
	if err != nil {
		return nil, errors.Wrap(err, "normalize request")
	}

	if err := e.requests.UpdateClassification(ctx, req.ID, out.Normalized, out.Category); err != nil {
		return nil, errors.Wrap(err, "store classification")
	}
	if err := e.requests.SaveSpec(ctx, out.Spec(req.ID)); err != nil {
		return nil, errors.Wrap(err, "store spec")
	}

	if out.Valid {
		return e.move(ctx, req, models.RequestReadyForRFQ, models.StageSourcing, ActionNormalized, "")
	}

	detail := ""
	if len(out.Missing) > 0 {
		detail = "missing: " + strings.Join(out.Missing, ", ")
	} else if len(out.Problems) > 0 {
		detail = "invalid: " + strings.Join(out.Problems, "; ")
	}
	return e.move(ctx, req, models.RequestIncomplete, models.StageAnalysis, ActionIncomplete, detail)
}

// SendRFQ dispatches RFQs for a request on an operator's command, regardless
// of the auto-send setting. The request must be ready_for_rfq or already in
// rfq_sent (a resend).
func (e *Engine) SendRFQ(ctx context.Context, requestID uuid.UUID) (*Result, error) {
	req, err := e.requests.Get(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get request")
	}
	if req.Status != models.RequestReadyForRFQ && req.Status != models.RequestRFQSent {
		return nil, apperr.Invalid("request %s is %s, RFQs need a normalized request", requestID, req.Status)
	}
	return e.sendRFQs(ctx, req)
}

func (e *Engine) sendRFQs(ctx context.Context, req *models.Request) (*Result, error) {
	batch, err := e.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "dispatch rfqs")
	}
	if len(batch.RFQs) == 0 {
		return unchanged(req, ActionNoSuppliers, "no active supplier serves "+req.Category), nil
	}

	return e.move(ctx, req, models.RequestRFQSent, models.StageQuoting, ActionRFQSent, "batch "+batch.ID)
}

func (e *Engine) compare(ctx context.Context, req *models.Request) (*Result, error) {
	cmp, err := e.comparer.Compare(ctx, req.ID)
	if err != nil {
		return nil, errors.Wrap(err, "compare quotes")
	}
	best := cmp.Best()
	if best == nil {
		return unchanged(req, ActionAwaitingQuotes, ""), nil
	}

	return e.move(ctx, req, models.RequestQuotesCompared, models.StageClientReview, ActionQuotesCompared, "best quote "+best.ID.String())
}

func (e *Engine) move(ctx context.Context, req *models.Request, status models.RequestStatus, stage models.PipelineStage, action Action, detail string) (*Result, error) {
	if err := e.requests.UpdateStatus(ctx, req.ID, status, stage); err != nil {
		return nil, errors.Wrap(err, "update request status")
	}
	return &Result{
		RequestID: req.ID,
		Action:    action,
		Status:    status,
		Stage:     stage,
		Changed:   status != req.Status || stage != req.Stage,
		Detail:    detail,
	}, nil
}

func unchanged(req *models.Request, action Action, detail string) *Result {
	return &Result{
		RequestID: req.ID,
		Action:    action,
		Status:    req.Status,
		Stage:     req.Stage,
		Detail:    detail,
	}
}
