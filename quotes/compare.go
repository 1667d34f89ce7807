// ABOUTME: Quote comparison for a request
// ABOUTME: Ranks live quotes by total and delivery time and reports savings
package quotes

import (
	"context"
	"sort"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

// Ranked is one quote's place in a comparison.
type Ranked struct {
	Rank    int           `json:"rank"`
	Best    bool          `json:"best"`
	Quote   *models.Quote `json:"quote"`
	Total   string        `json:"total"`
	Savings int64         `json:"savings_vs_highest"`
}

// Comparison ranks the live quotes of a request, cheapest first.
type Comparison struct {
	RequestID uuid.UUID   `json:"request_id"`
	Currency  string      `json:"currency,omitempty"`
	Ranking   []Ranked    `json:"ranking"`
	Expired   []uuid.UUID `json:"expired,omitempty"`
	Spread    int64       `json:"spread"`
}

// Best returns the winning quote or nil when nothing could be ranked.
func (c *Comparison) Best() *models.Quote {
	if len(c.Ranking) == 0 {
		return nil
	}
	return c.Ranking[0].Quote
}

type Comparator struct {
	quotes   QuoteStore
	requests RequestStore
	now      func() time.Time
}

func NewComparator(quotes QuoteStore, requests RequestStore) *Comparator {
	return &Comparator{quotes: quotes, requests: requests, now: time.Now}
}

// Compare ranks active quotes by total, then delivery days, then arrival.
// Expired quotes are listed but not ranked. Quotes in different currencies
// cannot be ranked against each other.
func (c *Comparator) Compare(ctx context.Context, requestID uuid.UUID) (*Comparison, error) {
	if _, err := c.requests.Get(ctx, requestID); errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("request %s not found", requestID)
	} else if err != nil {
		return nil, errors.Wrap(err, "get request")
	}

	all, err := c.quotes.ListActiveByRequest(ctx, requestID)
	if err != nil {
		return nil, errors.Wrap(err, "list quotes")
	}

	now := c.now()
	cmp := &Comparison{RequestID: requestID, Ranking: []Ranked{}}
	live := make([]*models.Quote, 0, len(all))
	for _, q := range all {
		if q.Expired(now) {
			cmp.Expired = append(cmp.Expired, q.ID)
			continue
		}
		if cmp.Currency == "" {
			cmp.Currency = q.Currency
		} else if q.Currency != cmp.Currency {
			return nil, apperr.Invalid("quotes for request %s mix %s and %s", requestID, cmp.Currency, q.Currency)
		}
		live = append(live, q)
	}

	if len(live) == 0 {
		return cmp, nil
	}

	sort.SliceStable(live, func(i, j int) bool {
		a, b := live[i], live[j]
		if a.Total != b.Total {
			return a.Total < b.Total
		}
		if a.DeliveryDays != b.DeliveryDays {
			return a.DeliveryDays < b.DeliveryDays
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	highest := money.New(live[len(live)-1].Total, cmp.Currency)
	lowest := money.New(live[0].Total, cmp.Currency)
	spread, err := highest.Subtract(lowest)
	if err != nil {
		return nil, errors.Wrap(err, "compute spread")
	}
	cmp.Spread = spread.Amount()

	for i, q := range live {
		total := money.New(q.Total, cmp.Currency)
		savings, err := highest.Subtract(total)
		if err != nil {
			return nil, errors.Wrap(err, "compute savings")
		}
		cmp.Ranking = append(cmp.Ranking, Ranked{
			Rank:    i + 1,
			Best:    i == 0,
			Quote:   q,
			Total:   total.Display(),
			Savings: savings.Amount(),
		})
	}

	return cmp, nil
}
