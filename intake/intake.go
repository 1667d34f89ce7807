// ABOUTME: Request intake from every channel (web, email, chat, api, files)
// ABOUTME: Validates the submission and stores it as a new request at the start of the pipeline
package intake

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

// MaxContentLength caps the raw text accepted for one request.
const MaxContentLength = 20000

type RequestCreator interface {
	Create(ctx context.Context, req *models.Request) error
}

// Submission is a raw buyer request as it arrives from a channel.
type Submission struct {
	Source   string `json:"source"`
	ClientID string `json:"client_id"`
	Content  string `json:"content"`
	Urgency  string `json:"urgency,omitempty"`
}

type Service struct {
	requests RequestCreator
	log      *logrus.Entry
}

func NewService(requests RequestCreator, logger *logrus.Logger) *Service {
	return &Service{
		requests: requests,
		log:      logger.WithField("service", "intake"),
	}
}

// Submit stores a new request in status new / stage new. An empty source
// is treated as web.
func (s *Service) Submit(ctx context.Context, sub Submission) (*models.Request, error) {
	source := models.SourceWeb
	if sub.Source != "" {
		parsed, err := models.ParseRequestSource(sub.Source)
		if err != nil {
			return nil, err
		}
		source = parsed
	}

	clientID := strings.TrimSpace(sub.ClientID)
	if clientID == "" {
		return nil, apperr.Invalid("client id is required")
	}

	content := strings.TrimSpace(sub.Content)
	if content == "" {
		return nil, apperr.Invalid("request content is empty")
	}
	if len(content) > MaxContentLength {
		return nil, apperr.Invalid("request content exceeds %d bytes", MaxContentLength)
	}

	urgency, err := models.ParseUrgency(sub.Urgency)
	if err != nil {
		return nil, err
	}

	req := &models.Request{
		Source:     source,
		ClientID:   clientID,
		RawContent: content,
		Urgency:    urgency,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	s.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"client_id":  req.ClientID,
		"source":     req.Source,
	}).Info("request received")

	return req, nil
}
