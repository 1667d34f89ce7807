// ABOUTME: HTTP handlers for orders, the pipeline, requests, quotes and automation
package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/intake"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

type advanceBody struct {
	Metadata map[string]any `json:"metadata"`
}

type cancelBody struct {
	Reason string `json:"reason" validate:"max=500"`
}

type createRequestBody struct {
	Content  string `json:"content" validate:"required,max=20000"`
	ClientID string `json:"client_id" validate:"omitempty,max=128"`
	Source   string `json:"source" validate:"omitempty,oneof=web email whatsapp chat file api"`
	Urgency  string `json:"urgency" validate:"omitempty,oneof=low normal high urgent"`
}

type moveRequestBody struct {
	Stage string `json:"stage" validate:"required"`
}

func (s *Server) authorize(r *http.Request, obj, act string) (auth.Identity, error) {
	id := identityFrom(r.Context())
	return id, s.app.Authorizer.Authorize(r.Context(), id, obj, act)
}

// ownedRequest loads the request in the path and checks the caller may see it.
func (s *Server) ownedRequest(r *http.Request, id auth.Identity) (*models.Request, error) {
	requestID, err := pathID(r)
	if err != nil {
		return nil, err
	}
	req, err := s.app.Pipeline.GetRequest(r.Context(), requestID)
	if err != nil {
		return nil, err
	}
	if err := s.app.Authorizer.CheckVisible(id, req.ClientID, "request", requestID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	id, err := s.authorize(r, auth.ObjOrders, auth.ActRead)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.app.Tracking.GetTrackingInfo(r.Context(), orderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.Authorizer.CheckVisible(id, info.ClientID, "purchase order", orderID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, auth.ObjOrders, auth.ActAdvance); err != nil {
		s.writeError(w, r, err)
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body advanceBody
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	advanced, err := s.app.Tracking.AdvanceStatus(r.Context(), orderID, models.Metadata(body.Metadata))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.app.Tracking.GetTrackingInfo(r.Context(), orderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"advanced": advanced, "tracking": info})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, auth.ObjOrders, auth.ActCancel); err != nil {
		s.writeError(w, r, err)
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body cancelBody
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.app.Tracking.CancelOrder(r.Context(), orderID, body.Reason); err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.app.Tracking.GetTrackingInfo(r.Context(), orderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	id, err := s.authorize(r, auth.ObjPipeline, auth.ActRead)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	scope := id.Scope()
	if filter := strings.TrimSpace(r.URL.Query().Get("client_id")); filter != "" {
		if err := s.app.Authorizer.CheckOwner(id, filter); err != nil {
			s.writeError(w, r, err)
			return
		}
		scope = &filter
	}

	board, err := s.app.Pipeline.GetPipeline(r.Context(), scope)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	id, err := s.authorize(r, auth.ObjRequests, auth.ActCreate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body createRequestBody
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	clientID := strings.TrimSpace(body.ClientID)
	if !id.Staff() {
		if clientID != "" {
			if err := s.app.Authorizer.CheckOwner(id, clientID); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		clientID = id.ClientID
	}

	req, err := s.app.Intake.Submit(r.Context(), intake.Submission{
		Source:   body.Source,
		ClientID: clientID,
		Content:  body.Content,
		Urgency:  body.Urgency,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleMoveRequest(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, auth.ObjRequests, auth.ActUpdate); err != nil {
		s.writeError(w, r, err)
		return
	}
	requestID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body moveRequestBody
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := s.app.Pipeline.MoveRequest(r.Context(), requestID, body.Stage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleProcessRequest(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, auth.ObjAutomation, auth.ActRun); err != nil {
		s.writeError(w, r, err)
		return
	}
	requestID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.app.Automation.ProcessRequest(r.Context(), requestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSendRFQ(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, auth.ObjRFQs, auth.ActSend); err != nil {
		s.writeError(w, r, err)
		return
	}
	requestID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.app.Automation.SendRFQ(r.Context(), requestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRunAutomation(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, auth.ObjAutomation, auth.ActRun); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.app.Automation.ProcessAllPending(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReceiveQuote(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, auth.ObjQuotes, auth.ActCreate); err != nil {
		s.writeError(w, r, err)
		return
	}
	requestID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, apperr.Invalid("read body: %v", err))
		return
	}

	q, err := s.app.Receiver.Receive(r.Context(), requestID, payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleCompareQuotes(w http.ResponseWriter, r *http.Request) {
	id, err := s.authorize(r, auth.ObjQuotes, auth.ActRead)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.ownedRequest(r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cmp, err := s.app.Comparator.Compare(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleAcceptQuote(w http.ResponseWriter, r *http.Request) {
	id, err := s.authorize(r, auth.ObjQuotes, auth.ActAccept)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	quoteID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.app.Quotes.Get(r.Context(), quoteID)
	if errors.Is(err, db.ErrNotFound) {
		s.writeError(w, r, apperr.NotFound("quote %s not found", quoteID))
		return
	}
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "get quote"))
		return
	}
	req, err := s.app.Pipeline.GetRequest(r.Context(), q.RequestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.Authorizer.CheckVisible(id, req.ClientID, "quote", quoteID); err != nil {
		s.writeError(w, r, err)
		return
	}

	po, err := s.app.Creator.CreateFromQuote(r.Context(), quoteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, po)
}
