// Package memstore is an in-process record store used for local runs and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

var _ storex.Store = (*Store)(nil)

type Option func(*Store)

// WithClock replaces the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = storex.NewMonotonicClock(now) }
}

type Store struct {
	mu sync.RWMutex

	conversations map[string]*storex.Conversation
	messages      map[string][]storex.Message
	orders        []storex.Order
	invoices      []storex.Invoice
	refunds       []storex.Refund
	faqs          []storex.FAQ

	now func() time.Time
}

func New(opts ...Option) *Store {
	s := &Store{
		conversations: map[string]*storex.Conversation{},
		messages:      map[string][]storex.Message{},
		now:           storex.NewMonotonicClock(time.Now),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed replaces every record with the demo fixtures.
func (s *Store) Seed(ctx context.Context) error {
	f := storex.SeedFixtures(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = map[string]*storex.Conversation{}
	s.messages = map[string][]storex.Message{}
	s.orders = f.Orders
	s.invoices = f.Invoices
	s.refunds = f.Refunds
	s.faqs = f.FAQs
	return nil
}

func (s *Store) Conversations() storex.Conversations { return conversations{s} }
func (s *Store) Messages() storex.Messages           { return messages{s} }
func (s *Store) Orders() storex.Orders               { return orders{s} }
func (s *Store) Invoices() storex.Invoices           { return invoices{s} }
func (s *Store) Refunds() storex.Refunds             { return refunds{s} }
func (s *Store) FAQs() storex.FAQs                   { return faqs{s} }

type conversations struct{ s *Store }

func (c conversations) Create(ctx context.Context, userID, title string) (*storex.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = storex.DefaultConversationTitle
	}
	now := c.s.now()
	conv := &storex.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.conversations[conv.ID] = conv
	out := *conv
	return &out, nil
}

func (c conversations) Get(ctx context.Context, id string) (*storex.Conversation, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	conv, ok := c.s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, storex.ErrNotFound)
	}
	out := *conv
	out.Messages = append([]storex.Message{}, c.s.messages[id]...)
	return &out, nil
}

func (c conversations) ListByUser(ctx context.Context, userID string) ([]storex.Conversation, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := []storex.Conversation{}
	for _, conv := range c.s.conversations {
		if conv.UserID != userID {
			continue
		}
		item := *conv
		item.Messages = nil
		if msgs := c.s.messages[conv.ID]; len(msgs) > 0 {
			item.Messages = []storex.Message{msgs[len(msgs)-1]}
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (c conversations) UpdateTitle(ctx context.Context, id, title string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	conv, ok := c.s.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, storex.ErrNotFound)
	}
	conv.Title = title
	conv.UpdatedAt = c.s.now()
	return nil
}

func (c conversations) Delete(ctx context.Context, id string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.conversations[id]; !ok {
		return fmt.Errorf("conversation %s: %w", id, storex.ErrNotFound)
	}
	delete(c.s.messages, id)
	delete(c.s.conversations, id)
	return nil
}

type messages struct{ s *Store }

func (m messages) Create(ctx context.Context, msg storex.Message) (*storex.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	conv, ok := m.s.conversations[msg.ConversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", msg.ConversationID, storex.ErrNotFound)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = m.s.now()
	conv.UpdatedAt = msg.CreatedAt
	m.s.messages[msg.ConversationID] = append(m.s.messages[msg.ConversationID], msg)
	return &msg, nil
}

func (m messages) ListByConversation(ctx context.Context, conversationID string) ([]storex.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return append([]storex.Message{}, m.s.messages[conversationID]...), nil
}

func (m messages) ListRecent(ctx context.Context, conversationID string, limit int) ([]storex.Message, error) {
	limit = storex.NormalizeLimit(limit, storex.DefaultHistoryLimit)
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	all := m.s.messages[conversationID]
	out := make([]storex.Message, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

type orders struct{ s *Store }

func (o orders) find(match func(storex.Order) bool) (*storex.Order, error) {
	for i := range o.s.orders {
		if match(o.s.orders[i]) {
			out := o.s.orders[i]
			return &out, nil
		}
	}
	return nil, storex.ErrNotFound
}

func (o orders) GetByNumber(ctx context.Context, orderNumber string) (*storex.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	return o.find(func(x storex.Order) bool { return x.OrderNumber == orderNumber })
}

func (o orders) GetByID(ctx context.Context, id string) (*storex.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	return o.find(func(x storex.Order) bool { return x.ID == id })
}

func (o orders) ListByUser(ctx context.Context, userID string) ([]storex.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	out := []storex.Order{}
	for _, x := range o.s.orders {
		if x.UserID == userID {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (o orders) UpdateStatus(ctx context.Context, id string, status storex.OrderStatus) (*storex.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for i := range o.s.orders {
		if o.s.orders[i].ID == id {
			o.s.orders[i].Status = status
			o.s.orders[i].UpdatedAt = o.s.now()
			out := o.s.orders[i]
			return &out, nil
		}
	}
	return nil, storex.ErrNotFound
}

func (o orders) SearchByNumberOrTracking(ctx context.Context, query string, limit int) ([]storex.Order, error) {
	limit = storex.NormalizeLimit(limit, storex.DefaultSearchLimit)
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	out := []storex.Order{}
	for _, x := range o.s.orders {
		if len(out) == limit {
			break
		}
		if storex.MatchOrder(x, query) {
			out = append(out, x)
		}
	}
	return out, nil
}

type invoices struct{ s *Store }

func (v invoices) GetByNumber(ctx context.Context, invoiceNumber string) (*storex.Invoice, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for _, x := range v.s.invoices {
		if x.InvoiceNumber == invoiceNumber {
			return &x, nil
		}
	}
	return nil, storex.ErrNotFound
}

func (v invoices) ListByUser(ctx context.Context, userID string) ([]storex.Invoice, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := []storex.Invoice{}
	for _, x := range v.s.invoices {
		if x.UserID == userID {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type refunds struct{ s *Store }

func (r refunds) GetByNumber(ctx context.Context, refundNumber string) (*storex.Refund, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, x := range r.s.refunds {
		if x.RefundNumber == refundNumber {
			return &x, nil
		}
	}
	return nil, storex.ErrNotFound
}

func (r refunds) ListByOrder(ctx context.Context, orderID string) ([]storex.Refund, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []storex.Refund{}
	for _, x := range r.s.refunds {
		if x.OrderID == orderID {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (r refunds) Create(ctx context.Context, refund storex.Refund) (*storex.Refund, error) {
	// Numbering is count-then-insert and not atomic.
	r.s.mu.RLock()
	count := len(r.s.refunds)
	r.s.mu.RUnlock()

	if refund.ID == "" {
		refund.ID = uuid.NewString()
	}
	refund.RefundNumber = storex.RefundNumber(count + 1)
	refund.Status = storex.RefundPending
	refund.RequestedAt = r.s.now()
	refund.ProcessedAt = nil

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.refunds = append(r.s.refunds, refund)
	return &refund, nil
}

func (r refunds) UpdateStatus(ctx context.Context, id string, status storex.RefundStatus) (*storex.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.refunds {
		if r.s.refunds[i].ID != id {
			continue
		}
		r.s.refunds[i].Status = status
		if status == storex.RefundCompleted {
			now := r.s.now()
			r.s.refunds[i].ProcessedAt = &now
		}
		out := r.s.refunds[i]
		return &out, nil
	}
	return nil, storex.ErrNotFound
}

type faqs struct{ s *Store }

func (f faqs) Search(ctx context.Context, query, category string) ([]storex.FAQ, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := []storex.FAQ{}
	for _, x := range f.s.faqs {
		if len(out) == storex.FAQSearchLimit {
			break
		}
		if category != "" && x.Category != category {
			continue
		}
		if storex.MatchFAQ(x, query) {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f faqs) ListAll(ctx context.Context) ([]storex.FAQ, error) {
	return f.list(func(storex.FAQ) bool { return true }), nil
}

func (f faqs) ListByCategory(ctx context.Context, category string) ([]storex.FAQ, error) {
	return f.list(func(x storex.FAQ) bool { return x.Category == category }), nil
}

func (f faqs) list(keep func(storex.FAQ) bool) []storex.FAQ {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := []storex.FAQ{}
	for _, x := range f.s.faqs {
		if keep(x) {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
