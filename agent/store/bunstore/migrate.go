package bunstore

import (
	"context"
	"fmt"

	storex "github.com/tanpawarit/chative-support/agent/store"
	"github.com/uptrace/bun"
)

var tableModels = []any{
	(*conversationRow)(nil),
	(*messageRow)(nil),
	(*orderRow)(nil),
	(*invoiceRow)(nil),
	(*refundRow)(nil),
	(*faqRow)(nil),
}

type index struct {
	model   any
	name    string
	columns []string
}

var indexes = []index{
	{model: (*conversationRow)(nil), name: "conversations_user_updated_idx", columns: []string{"user_id", "updated_at"}},
	{model: (*messageRow)(nil), name: "messages_conversation_created_idx", columns: []string{"conversation_id", "created_at"}},
	{model: (*orderRow)(nil), name: "orders_user_idx", columns: []string{"user_id"}},
	{model: (*invoiceRow)(nil), name: "invoices_user_idx", columns: []string{"user_id"}},
	{model: (*refundRow)(nil), name: "refunds_order_idx", columns: []string{"order_id"}},
	{model: (*faqRow)(nil), name: "faqs_category_idx", columns: []string{"category"}},
}

// Migrate creates every table and index that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, model := range tableModels {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	for _, idx := range indexes {
		if _, err := s.db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Seed clears every table and loads the demo fixtures in one transaction.
func (s *Store) Seed(ctx context.Context) error {
	f := storex.SeedFixtures(s.now())

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range tableModels {
			if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}

		faqRows := mapRows(f.FAQs, newFAQRow)
		orderRows := mapRows(f.Orders, newOrderRow)
		invoiceRows := mapRows(f.Invoices, newInvoiceRow)
		refundRows := mapRows(f.Refunds, newRefundRow)

		for _, rows := range []any{&faqRows, &orderRows, &invoiceRows, &refundRows} {
			if _, err := tx.NewInsert().Model(rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert %T: %w", rows, err)
			}
		}
		return nil
	})
}
