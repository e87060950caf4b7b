package store

import (
	"time"

	"github.com/google/uuid"
)

// Fixtures is the demo data set loaded by the seed command.
type Fixtures struct {
	FAQs     []FAQ
	Orders   []Order
	Invoices []Invoice
	Refunds  []Refund
}

const DemoUserID = "default-user"

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

// SeedFixtures builds a fresh copy of the demo records stamped with now.
func SeedFixtures(now time.Time) Fixtures {
	now = now.UTC()
	faq := func(question, answer, category string, keywords ...string) FAQ {
		return FAQ{
			ID:        uuid.NewString(),
			Question:  question,
			Answer:    answer,
			Category:  category,
			Keywords:  keywords,
			CreatedAt: now,
		}
	}

	return Fixtures{
		FAQs: []FAQ{
			faq("How do I reset my password?",
				`You can reset your password by clicking on "Forgot Password" on the login page. You will receive an email with instructions to reset your password.`,
				"general", "password", "reset", "login", "forgot"),
			faq("What are your shipping options?",
				"We offer standard shipping (5-7 business days), express shipping (2-3 business days), and overnight shipping. Shipping costs vary based on your location and order total.",
				"orders", "shipping", "delivery", "options", "mail"),
			faq("How can I track my order?",
				"Once your order ships, you will receive a tracking number via email. You can use this number to track your package on our website or the carrier website.",
				"orders", "track", "tracking", "order", "shipment"),
			faq("What is your refund policy?",
				"We offer a 30-day money-back guarantee on all purchases. If you are not satisfied with your order, you can request a refund within 30 days of delivery. The item must be unused and in original packaging.",
				"billing", "refund", "return", "money back", "policy"),
			faq("How do I update my billing information?",
				"You can update your billing information by logging into your account, going to Account Settings > Billing Information, and updating your payment method.",
				"billing", "billing", "payment", "credit card", "update"),
		},
		Orders: []Order{
			{
				ID:             uuid.NewString(),
				OrderNumber:    "ORD-000001",
				UserID:         DemoUserID,
				Status:         OrderDelivered,
				Items:          []OrderItem{{Name: "Wireless Headphones", Quantity: 1, Price: 299.99}},
				TotalAmount:    299.99,
				TrackingNumber: "TRK123456789",
				ShippingInfo:   &ShippingInfo{Address: "123 Main St", City: "New York", State: "NY", Zip: "10001"},
				CreatedAt:      now,
				UpdatedAt:      now,
			},
			{
				ID:          uuid.NewString(),
				OrderNumber: "ORD-000002",
				UserID:      DemoUserID,
				Status:      OrderShipped,
				Items: []OrderItem{
					{Name: "USB Cable", Quantity: 2, Price: 24.99},
					{Name: "Phone Case", Quantity: 1, Price: 99.52},
				},
				TotalAmount:    149.50,
				TrackingNumber: "TRK987654321",
				ShippingInfo:   &ShippingInfo{Address: "456 Oak Ave", City: "Los Angeles", State: "CA", Zip: "90001"},
				CreatedAt:      now,
				UpdatedAt:      now,
			},
			{
				ID:           uuid.NewString(),
				OrderNumber:  "ORD-000003",
				UserID:       DemoUserID,
				Status:       OrderProcessing,
				Items:        []OrderItem{{Name: "Smart Watch", Quantity: 1, Price: 599.00}},
				TotalAmount:  599.00,
				ShippingInfo: &ShippingInfo{Address: "789 Pine Rd", City: "Chicago", State: "IL", Zip: "60601"},
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
		Invoices: []Invoice{
			{
				ID:            uuid.NewString(),
				InvoiceNumber: "INV-000001",
				UserID:        DemoUserID,
				OrderID:       "ORD-000001",
				Amount:        299.99,
				Status:        InvoicePaid,
				Items:         []InvoiceItem{{Description: "Wireless Headphones", Amount: 299.99}},
				DueDate:       day("2024-01-15"),
				PaidAt:        ptr(day("2024-01-10")),
				CreatedAt:     now,
			},
			{
				ID:            uuid.NewString(),
				InvoiceNumber: "INV-000002",
				UserID:        DemoUserID,
				OrderID:       "ORD-000002",
				Amount:        149.50,
				Status:        InvoicePaid,
				Items: []InvoiceItem{
					{Description: "USB Cable x2", Amount: 49.98},
					{Description: "Phone Case", Amount: 99.52},
				},
				DueDate:   day("2024-02-15"),
				PaidAt:    ptr(day("2024-02-05")),
				CreatedAt: now,
			},
			{
				ID:            uuid.NewString(),
				InvoiceNumber: "INV-000003",
				UserID:        DemoUserID,
				OrderID:       "ORD-000003",
				Amount:        599.00,
				Status:        InvoicePending,
				Items:         []InvoiceItem{{Description: "Smart Watch", Amount: 599.00}},
				DueDate:       day("2024-03-15"),
				CreatedAt:     now,
			},
		},
		Refunds: []Refund{
			{
				ID:           uuid.NewString(),
				RefundNumber: "RFN-000001",
				UserID:       DemoUserID,
				OrderID:      "ORD-000001",
				Amount:       299.99,
				Reason:       "Product not as described",
				Status:       RefundCompleted,
				RequestedAt:  now,
				ProcessedAt:  ptr(day("2024-01-20")),
			},
			{
				ID:           uuid.NewString(),
				RefundNumber: "RFN-000002",
				UserID:       DemoUserID,
				OrderID:      "ORD-000002",
				Amount:       149.50,
				Reason:       "Changed mind",
				Status:       RefundPending,
				RequestedAt:  now,
			},
		},
	}
}
