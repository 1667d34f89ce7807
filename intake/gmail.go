// ABOUTME: Gmail importer that turns labelled unread emails into email-sourced requests
// ABOUTME: Senders are mapped to client ids; messages already imported are skipped via the intake log
package intake

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/gmail/v1"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

const (
	gmailSource     = "gmail"
	maxGmailResults = 100
)

// Message is the part of an email the importer needs.
type Message struct {
	ID      string
	From    string
	Subject string
	Body    string
}

// MailSource lists unread messages under a label.
type MailSource interface {
	Unread(ctx context.Context, label string) ([]Message, error)
}

type IntakeLog interface {
	Seen(ctx context.Context, source, sourceID string) (bool, error)
	Record(ctx context.Context, source, sourceID string, requestID uuid.UUID) error
}

// ImportReport summarizes one Gmail import run.
type ImportReport struct {
	Created  []uuid.UUID `json:"created"`
	Skipped  int         `json:"skipped"`
	Unmapped []string    `json:"unmapped,omitempty"`
	Failed   int         `json:"failed"`
}

type Importer struct {
	source  MailSource
	intake  *Service
	seen    IntakeLog
	senders map[string]string
	label   string
	log     *logrus.Entry
}

func NewImporter(source MailSource, intake *Service, seen IntakeLog, senders map[string]string, label string, logger *logrus.Logger) *Importer {
	return &Importer{
		source:  source,
		intake:  intake,
		seen:    seen,
		senders: senders,
		label:   label,
		log:     logger.WithField("component", "gmail-intake"),
	}
}

// Import creates one request per new message from a known sender. A message
// that fails is counted and left for the next run.
func (i *Importer) Import(ctx context.Context) (*ImportReport, error) {
	messages, err := i.source.Unread(ctx, i.label)
	if err != nil {
		return nil, errors.Wrap(err, "list gmail messages")
	}

	report := &ImportReport{Created: []uuid.UUID{}}
	for _, msg := range messages {
		seen, err := i.seen.Seen(ctx, gmailSource, msg.ID)
		if err != nil {
			return report, errors.Wrap(err, "check intake log")
		}
		if seen {
			report.Skipped++
			continue
		}

		addr := senderAddress(msg.From)
		clientID, ok := i.senders[addr]
		if !ok {
			i.log.WithFields(logrus.Fields{"message_id": msg.ID, "from": addr}).Warn("sender is not mapped to a client")
			report.Unmapped = append(report.Unmapped, addr)
			continue
		}

		req, err := i.intake.Submit(ctx, Submission{
			Source:   string(models.SourceEmail),
			ClientID: clientID,
			Content:  messageContent(msg),
		})
		if err != nil {
			i.log.WithError(err).WithField("message_id", msg.ID).Error("failed to import message")
			report.Failed++
			continue
		}
		if err := i.seen.Record(ctx, gmailSource, msg.ID, req.ID); err != nil {
			return report, errors.Wrap(err, "record intake log")
		}
		report.Created = append(report.Created, req.ID)
	}

	i.log.WithFields(logrus.Fields{
		"created":  len(report.Created),
		"skipped":  report.Skipped,
		"unmapped": len(report.Unmapped),
		"failed":   report.Failed,
	}).Info("gmail import finished")

	return report, nil
}

func messageContent(msg Message) string {
	subject := strings.TrimSpace(msg.Subject)
	body := strings.TrimSpace(msg.Body)
	switch {
	case subject == "":
		return body
	case body == "":
		return subject
	default:
		return subject + "\n\n" + body
	}
}

// senderAddress returns the lowercased address of a From header.
func senderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.ToLower(strings.Trim(strings.TrimSpace(from), "<>"))
	}
	return strings.ToLower(addr.Address)
}

// GmailSource reads messages through the Gmail API.
type GmailSource struct {
	svc *gmail.Service
}

func NewGmailSource(svc *gmail.Service) *GmailSource {
	return &GmailSource{svc: svc}
}

func (g *GmailSource) Unread(ctx context.Context, label string) ([]Message, error) {
	query := "is:unread"
	if label != "" {
		query = fmt.Sprintf("label:%s is:unread", label)
	}

	var out []Message
	pageToken := ""
	for {
		call := g.svc.Users.Messages.List("me").Q(query).MaxResults(maxGmailResults).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, errors.Wrap(err, "list messages")
		}

		for _, ref := range resp.Messages {
			full, err := g.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
			if err != nil {
				return nil, errors.Wrapf(err, "get message %s", ref.Id)
			}
			out = append(out, toMessage(full))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return out, nil
}

func toMessage(m *gmail.Message) Message {
	msg := Message{ID: m.Id}
	if m.Payload == nil {
		msg.Body = m.Snippet
		return msg
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			msg.From = h.Value
		case "subject":
			msg.Subject = h.Value
		}
	}
	msg.Body = plainBody(m.Payload)
	if msg.Body == "" {
		msg.Body = m.Snippet
	}
	return msg
}

// plainBody returns the first text/plain part, searching depth first.
func plainBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		raw, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			raw, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
			if err != nil {
				return ""
			}
		}
		return string(raw)
	}
	for _, p := range part.Parts {
		if body := plainBody(p); body != "" {
			return body
		}
	}
	return ""
}
