// Package bunstore persists conversations and domain records in SQL through bun.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	storex "github.com/tanpawarit/chative-support/agent/store"
	"github.com/uptrace/bun"
)

var _ storex.Store = (*Store)(nil)

type Option func(*Store)

// WithClock replaces the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = storex.NewMonotonicClock(now) }
}

type Store struct {
	db  bun.IDB
	now func() time.Time
}

func New(db bun.IDB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		now: storex.NewMonotonicClock(time.Now),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Conversations() storex.Conversations { return conversations{s} }
func (s *Store) Messages() storex.Messages           { return messages{s} }
func (s *Store) Orders() storex.Orders               { return orders{s} }
func (s *Store) Invoices() storex.Invoices           { return invoices{s} }
func (s *Store) Refunds() storex.Refunds             { return refunds{s} }
func (s *Store) FAQs() storex.FAQs                   { return faqs{s} }

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storex.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storex.ErrNotFound)
	}
	return nil
}

// likePattern builds a case-insensitive contains pattern for LIKE ... ESCAPE '\'.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

type conversations struct{ s *Store }

func (c conversations) Create(ctx context.Context, userID, title string) (*storex.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = storex.DefaultConversationTitle
	}
	now := c.s.now()
	row := conversationRow{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := c.s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	out := row.model()
	return &out, nil
}

func (c conversations) Get(ctx context.Context, id string) (*storex.Conversation, error) {
	var row conversationRow
	if err := c.s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "conversation "+id)
	}

	msgs, err := messages{c.s}.ListByConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	out := row.model()
	out.Messages = msgs
	return &out, nil
}

func (c conversations) ListByUser(ctx context.Context, userID string) ([]storex.Conversation, error) {
	var rows []conversationRow
	if err := c.s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]storex.Conversation, 0, len(rows))
	for _, row := range rows {
		conv := row.model()
		latest, err := messages{c.s}.ListRecent(ctx, row.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(latest) > 0 {
			conv.Messages = latest
		}
		out = append(out, conv)
	}
	return out, nil
}

func (c conversations) UpdateTitle(ctx context.Context, id, title string) error {
	res, err := c.s.db.NewUpdate().Model((*conversationRow)(nil)).
		Set("title = ?", title).
		Set("updated_at = ?", c.s.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update conversation title: %w", err)
	}
	return requireAffected(res, "conversation "+id)
}

func (c conversations) Delete(ctx context.Context, id string) error {
	run := func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*messageRow)(nil)).Where("conversation_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		res, err := tx.NewDelete().Model((*conversationRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		return requireAffected(res, "conversation "+id)
	}
	return c.s.db.RunInTx(ctx, nil, run)
}

type messages struct{ s *Store }

func (m messages) Create(ctx context.Context, msg storex.Message) (*storex.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = m.s.now()
	row := newMessageRow(msg)

	run := func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*conversationRow)(nil)).
			Set("updated_at = ?", msg.CreatedAt).
			Where("id = ?", msg.ConversationID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		if err := requireAffected(res, "conversation "+msg.ConversationID); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	}
	if err := m.s.db.RunInTx(ctx, nil, run); err != nil {
		return nil, err
	}
	out := row.model()
	return &out, nil
}

func (m messages) ListByConversation(ctx context.Context, conversationID string) ([]storex.Message, error) {
	var rows []messageRow
	if err := m.s.db.NewSelect().Model(&rows).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return mapRows(rows, messageRow.model), nil
}

func (m messages) ListRecent(ctx context.Context, conversationID string, limit int) ([]storex.Message, error) {
	var rows []messageRow
	if err := m.s.db.NewSelect().Model(&rows).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(storex.NormalizeLimit(limit, storex.DefaultHistoryLimit)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	return mapRows(rows, messageRow.model), nil
}

type orders struct{ s *Store }

func (o orders) getBy(ctx context.Context, column, value string) (*storex.Order, error) {
	var row orderRow
	if err := o.s.db.NewSelect().Model(&row).Where("? = ?", bun.Ident(column), value).Scan(ctx); err != nil {
		return nil, notFound(err, "order "+value)
	}
	out := row.model()
	return &out, nil
}

func (o orders) GetByNumber(ctx context.Context, orderNumber string) (*storex.Order, error) {
	return o.getBy(ctx, "order_number", orderNumber)
}

func (o orders) GetByID(ctx context.Context, id string) (*storex.Order, error) {
	return o.getBy(ctx, "id", id)
}

func (o orders) ListByUser(ctx context.Context, userID string) ([]storex.Order, error) {
	var rows []orderRow
	if err := o.s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return mapRows(rows, orderRow.model), nil
}

func (o orders) UpdateStatus(ctx context.Context, id string, status storex.OrderStatus) (*storex.Order, error) {
	res, err := o.s.db.NewUpdate().Model((*orderRow)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", o.s.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := requireAffected(res, "order "+id); err != nil {
		return nil, err
	}
	return o.GetByID(ctx, id)
}

func (o orders) SearchByNumberOrTracking(ctx context.Context, query string, limit int) ([]storex.Order, error) {
	pattern := likePattern(query)
	var rows []orderRow
	if err := o.s.db.NewSelect().Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`LOWER(order_number) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(tracking_number) LIKE ? ESCAPE '\'`, pattern)
		}).
		Order("created_at ASC").
		Limit(storex.NormalizeLimit(limit, storex.DefaultSearchLimit)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	return mapRows(rows, orderRow.model), nil
}

type invoices struct{ s *Store }

func (v invoices) GetByNumber(ctx context.Context, invoiceNumber string) (*storex.Invoice, error) {
	var row invoiceRow
	if err := v.s.db.NewSelect().Model(&row).Where("invoice_number = ?", invoiceNumber).Scan(ctx); err != nil {
		return nil, notFound(err, "invoice "+invoiceNumber)
	}
	out := row.model()
	return &out, nil
}

func (v invoices) ListByUser(ctx context.Context, userID string) ([]storex.Invoice, error) {
	var rows []invoiceRow
	if err := v.s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return mapRows(rows, invoiceRow.model), nil
}

type refunds struct{ s *Store }

func (r refunds) get(ctx context.Context, column, value string) (*storex.Refund, error) {
	var row refundRow
	if err := r.s.db.NewSelect().Model(&row).Where("? = ?", bun.Ident(column), value).Scan(ctx); err != nil {
		return nil, notFound(err, "refund "+value)
	}
	out := row.model()
	return &out, nil
}

func (r refunds) GetByNumber(ctx context.Context, refundNumber string) (*storex.Refund, error) {
	return r.get(ctx, "refund_number", refundNumber)
}

func (r refunds) ListByOrder(ctx context.Context, orderID string) ([]storex.Refund, error) {
	var rows []refundRow
	if err := r.s.db.NewSelect().Model(&rows).
		Where("order_id = ?", orderID).
		Order("requested_at DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	return mapRows(rows, refundRow.model), nil
}

func (r refunds) Create(ctx context.Context, refund storex.Refund) (*storex.Refund, error) {
	// Count-then-insert: concurrent creates can collide on the number.
	count, err := r.s.db.NewSelect().Model((*refundRow)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count refunds: %w", err)
	}

	if refund.ID == "" {
		refund.ID = uuid.NewString()
	}
	refund.RefundNumber = storex.RefundNumber(count + 1)
	refund.Status = storex.RefundPending
	refund.RequestedAt = r.s.now()
	refund.ProcessedAt = nil

	row := newRefundRow(refund)
	if _, err := r.s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert refund: %w", err)
	}
	out := row.model()
	return &out, nil
}

func (r refunds) UpdateStatus(ctx context.Context, id string, status storex.RefundStatus) (*storex.Refund, error) {
	q := r.s.db.NewUpdate().Model((*refundRow)(nil)).
		Set("status = ?", string(status)).
		Where("id = ?", id)
	if status == storex.RefundCompleted {
		q = q.Set("processed_at = ?", r.s.now())
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update refund status: %w", err)
	}
	if err := requireAffected(res, "refund "+id); err != nil {
		return nil, err
	}
	return r.get(ctx, "id", id)
}

type faqs struct{ s *Store }

func (f faqs) Search(ctx context.Context, query, category string) ([]storex.FAQ, error) {
	// Keyword equality lives in a JSON column, so matching happens here.
	all, err := f.list(ctx, category, "created_at ASC")
	if err != nil {
		return nil, err
	}
	out := []storex.FAQ{}
	for _, x := range all {
		if len(out) == storex.FAQSearchLimit {
			break
		}
		if storex.MatchFAQ(x, query) {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f faqs) ListAll(ctx context.Context) ([]storex.FAQ, error) {
	return f.list(ctx, "", "created_at DESC")
}

func (f faqs) ListByCategory(ctx context.Context, category string) ([]storex.FAQ, error) {
	return f.list(ctx, category, "created_at DESC")
}

func (f faqs) list(ctx context.Context, category, order string) ([]storex.FAQ, error) {
	var rows []faqRow
	q := f.s.db.NewSelect().Model(&rows).Order(order)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return mapRows(rows, faqRow.model), nil
}
