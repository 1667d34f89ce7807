// ABOUTME: Closed status vocabularies for requests, pipeline stages, orders and payments
// ABOUTME: Also holds the purchase-order transition table (a linear chain)
package models

import (
	"github.com/victor-4502/naova-mvp-sub002/apperr"
)

type RequestSource string

const (
	SourceWeb      RequestSource = "web"
	SourceEmail    RequestSource = "email"
	SourceWhatsApp RequestSource = "whatsapp"
	SourceChat     RequestSource = "chat"
	SourceFile     RequestSource = "file"
	SourceAPI      RequestSource = "api"
)

var requestSources = []RequestSource{SourceWeb, SourceEmail, SourceWhatsApp, SourceChat, SourceFile, SourceAPI}

func (s RequestSource) Valid() bool { return contains(requestSources, s) }

func ParseRequestSource(v string) (RequestSource, error) {
	s := RequestSource(v)
	if !s.Valid() {
		return "", apperr.Invalid("unknown request source %q", v)
	}
	return s, nil
}

type RequestStatus string

const (
	RequestNew              RequestStatus = "new"
	RequestParsing          RequestStatus = "parsing"
	RequestParsed           RequestStatus = "parsed"
	RequestIncomplete       RequestStatus = "incomplete"
	RequestReadyForRFQ      RequestStatus = "ready_for_rfq"
	RequestRFQSent          RequestStatus = "rfq_sent"
	RequestQuotesReceived   RequestStatus = "quotes_received"
	RequestQuotesCompared   RequestStatus = "quotes_compared"
	RequestSentToClient     RequestStatus = "sent_to_client"
	RequestApprovedByClient RequestStatus = "approved_by_client"
	RequestRejectedByClient RequestStatus = "rejected_by_client"
	RequestOrdered          RequestStatus = "ordered"
	RequestCompleted        RequestStatus = "completed"
	RequestCancelled        RequestStatus = "cancelled"
)

var requestStatuses = []RequestStatus{
	RequestNew, RequestParsing, RequestParsed, RequestIncomplete, RequestReadyForRFQ,
	RequestRFQSent, RequestQuotesReceived, RequestQuotesCompared, RequestSentToClient,
	RequestApprovedByClient, RequestRejectedByClient, RequestOrdered, RequestCompleted,
	RequestCancelled,
}

func (s RequestStatus) Valid() bool { return contains(requestStatuses, s) }

func ParseRequestStatus(v string) (RequestStatus, error) {
	s := RequestStatus(v)
	if !s.Valid() {
		return "", apperr.Invalid("unknown request status %q", v)
	}
	return s, nil
}

// PipelineStage is the coarse dashboard bucket a request sits in.
type PipelineStage string

const (
	StageNew          PipelineStage = "new"
	StageAnalysis     PipelineStage = "analysis"
	StageSourcing     PipelineStage = "sourcing"
	StageQuoting      PipelineStage = "quoting"
	StageClientReview PipelineStage = "client_review"
	StageOrdered      PipelineStage = "ordered"
	StageCompleted    PipelineStage = "completed"
	StageLost         PipelineStage = "lost"
)

var pipelineStages = []PipelineStage{
	StageNew, StageAnalysis, StageSourcing, StageQuoting,
	StageClientReview, StageOrdered, StageCompleted, StageLost,
}

// PipelineStages returns every stage in board order.
func PipelineStages() []PipelineStage {
	out := make([]PipelineStage, len(pipelineStages))
	copy(out, pipelineStages)
	return out
}

func (s PipelineStage) Valid() bool { return contains(pipelineStages, s) }

// Terminal reports whether automation should leave requests in this stage alone.
func (s PipelineStage) Terminal() bool {
	return s == StageCompleted || s == StageLost
}

// TerminalStages returns the stages excluded from batch automation.
func TerminalStages() []PipelineStage {
	return []PipelineStage{StageCompleted, StageLost}
}

func ParsePipelineStage(v string) (PipelineStage, error) {
	if v == "" {
		return "", apperr.Invalid("stage is required")
	}
	s := PipelineStage(v)
	if !s.Valid() {
		return "", apperr.Invalid("unknown pipeline stage %q", v)
	}
	return s, nil
}

type POStatus string

const (
	POApprovedByClient  POStatus = "approved_by_client"
	POCreated           POStatus = "purchase_order_created"
	POPaymentPending    POStatus = "payment_pending"
	POPaymentReceived   POStatus = "payment_received"
	POSupplierConfirmed POStatus = "supplier_confirmed"
	POInTransit         POStatus = "in_transit"
	PODelivered         POStatus = "delivered"
	POClosed            POStatus = "closed"
	POCancelled         POStatus = "cancelled"
)

// poChain is the only path an order walks. Cancellation is out-of-band.
var poChain = []POStatus{
	POApprovedByClient,
	POCreated,
	POPaymentPending,
	POPaymentReceived,
	POSupplierConfirmed,
	POInTransit,
	PODelivered,
	POClosed,
}

var poTransitions = map[POStatus]POStatus{
	POApprovedByClient:  POCreated,
	POCreated:           POPaymentPending,
	POPaymentPending:    POPaymentReceived,
	POPaymentReceived:   POSupplierConfirmed,
	POSupplierConfirmed: POInTransit,
	POInTransit:         PODelivered,
	PODelivered:         POClosed,
}

// NextPOStatus returns the single successor of current. The bool is false
// for closed, cancelled and unknown statuses.
func NextPOStatus(current POStatus) (POStatus, bool) {
	next, ok := poTransitions[current]
	return next, ok
}

// POStatusChain returns the ordered status chain, closed last.
func POStatusChain() []POStatus {
	out := make([]POStatus, len(poChain))
	copy(out, poChain)
	return out
}

// ChainIndex is the position of s in the chain, or -1 for cancelled/unknown.
func (s POStatus) ChainIndex() int {
	for i, c := range poChain {
		if c == s {
			return i
		}
	}
	return -1
}

func (s POStatus) Valid() bool {
	return s == POCancelled || s.ChainIndex() >= 0
}

func (s POStatus) Terminal() bool {
	return s == POClosed || s == POCancelled
}

func ParsePOStatus(v string) (POStatus, error) {
	s := POStatus(v)
	if !s.Valid() {
		return "", apperr.Invalid("unknown purchase order status %q", v)
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

var paymentStatuses = []PaymentStatus{PaymentPending, PaymentPartial, PaymentPaid, PaymentRefunded, PaymentFailed}

func (s PaymentStatus) Valid() bool { return contains(paymentStatuses, s) }

func ParsePaymentStatus(v string) (PaymentStatus, error) {
	s := PaymentStatus(v)
	if !s.Valid() {
		return "", apperr.Invalid("unknown payment status %q", v)
	}
	return s, nil
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

var urgencies = []Urgency{UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyUrgent}

func (u Urgency) Valid() bool { return contains(urgencies, u) }

func ParseUrgency(v string) (Urgency, error) {
	if v == "" {
		return UrgencyNormal, nil
	}
	u := Urgency(v)
	if !u.Valid() {
		return "", apperr.Invalid("unknown urgency %q", v)
	}
	return u, nil
}

// RFQ statuses.
const (
	RFQStatusSent      = "sent"
	RFQStatusResponded = "responded"
	RFQStatusExpired   = "expired"
)

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
