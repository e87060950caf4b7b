package tool

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
)

type ID string

const (
	QueryConversationHistory ID = "queryConversationHistory"
	SearchFAQs               ID = "searchFAQs"
	FetchOrderDetails        ID = "fetchOrderDetails"
	CheckDeliveryStatus      ID = "checkDeliveryStatus"
	GetUserOrders            ID = "getUserOrders"
	GetInvoiceDetails        ID = "getInvoiceDetails"
	CheckRefundStatus        ID = "checkRefundStatus"
	GetUserInvoices          ID = "getUserInvoices"
	RequestRefund            ID = "requestRefund"
)

// Inject names a caller-scoped identifier that overrides whatever the model supplied.
type Inject string

const (
	InjectConversationID Inject = "conversationId"
	InjectUserID         Inject = "userId"
)

// bound narrows a numeric parameter beyond what schema.ParameterInfo expresses.
type bound struct {
	min          *float64
	exclusiveMin bool
	max          *float64
}

type Spec struct {
	ID     ID
	Info   *schema.ToolInfo
	Inject []Inject

	// params is Info's parameter schema with bounds applied. Capabilities and
	// validation both read it.
	params *openapi3.Schema
}

func newSpec(id ID, desc string, params map[string]*schema.ParameterInfo, bounds map[string]bound, inject ...Inject) Spec {
	info := &schema.ToolInfo{
		Name:        string(id),
		Desc:        desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}

	sc, err := info.ToOpenAPIV3()
	if err != nil {
		panic(fmt.Sprintf("tool %s: %v", id, err))
	}
	sort.Strings(sc.Required)
	for name, b := range bounds {
		prop, ok := sc.Properties[name]
		if !ok {
			panic(fmt.Sprintf("tool %s: bound on unknown parameter %s", id, name))
		}
		prop.Value.Min = b.min
		prop.Value.ExclusiveMin = b.exclusiveMin
		prop.Value.Max = b.max
	}

	return Spec{ID: id, Info: info, Inject: inject, params: sc}
}

var (
	conversationIDParam = &schema.ParameterInfo{Type: schema.String, Desc: "The ID of the conversation to retrieve history from", Required: true}
	userIDParam         = &schema.ParameterInfo{Type: schema.String, Desc: "The user ID to fetch records for", Required: true}
)

var supportSpecs = []Spec{
	newSpec(QueryConversationHistory,
		"Retrieve conversation history to provide context-aware support. Use this to understand what the customer has previously discussed.",
		map[string]*schema.ParameterInfo{
			"conversationId": conversationIDParam,
			"limit":          {Type: schema.Integer, Desc: "Number of recent messages to retrieve (default: 10)"},
		},
		map[string]bound{"limit": {min: openapi3.Float64Ptr(1), max: openapi3.Float64Ptr(100)}},
		InjectConversationID,
	),
	newSpec(SearchFAQs,
		"Search the FAQ database for answers to common questions. Use this to find relevant solutions for customer inquiries.",
		map[string]*schema.ParameterInfo{
			"query":    {Type: schema.String, Desc: "The search query to find relevant FAQs", Required: true},
			"category": {Type: schema.String, Desc: "Optional category filter (general, orders, billing, technical)"},
		},
		nil,
	),
}

var orderSpecs = []Spec{
	newSpec(FetchOrderDetails,
		"Fetch complete order details by order number. Use this when customer asks about a specific order.",
		map[string]*schema.ParameterInfo{
			"orderNumber": {Type: schema.String, Desc: "The order number to look up (format: ORD-XXXXXX)", Required: true},
		},
		nil,
	),
	newSpec(CheckDeliveryStatus,
		"Check the delivery status and tracking information for an order.",
		map[string]*schema.ParameterInfo{
			"orderNumber": {Type: schema.String, Desc: "The order number to check delivery status for", Required: true},
		},
		nil,
	),
	newSpec(GetUserOrders,
		"Get all orders for a specific user. Use this to show order history.",
		map[string]*schema.ParameterInfo{"userId": userIDParam},
		nil,
		InjectUserID,
	),
}

var billingSpecs = []Spec{
	newSpec(GetInvoiceDetails,
		"Retrieve invoice details by invoice number. Use this for invoice-related queries.",
		map[string]*schema.ParameterInfo{
			"invoiceNumber": {Type: schema.String, Desc: "The invoice number to look up (format: INV-XXXXXX)", Required: true},
		},
		nil,
	),
	newSpec(CheckRefundStatus,
		"Check the status of a refund request by refund number.",
		map[string]*schema.ParameterInfo{
			"refundNumber": {Type: schema.String, Desc: "The refund number to check status for (format: RFN-XXXXXX)", Required: true},
		},
		nil,
	),
	newSpec(GetUserInvoices,
		"Get all invoices for a specific user.",
		map[string]*schema.ParameterInfo{"userId": userIDParam},
		nil,
		InjectUserID,
	),
	newSpec(RequestRefund,
		"Create a new refund request for an order.",
		map[string]*schema.ParameterInfo{
			"userId":  {Type: schema.String, Desc: "The user ID requesting the refund", Required: true},
			"orderId": {Type: schema.String, Desc: "The order ID to refund", Required: true},
			"amount":  {Type: schema.Number, Desc: "The refund amount", Required: true},
			"reason":  {Type: schema.String, Desc: "The reason for the refund request", Required: true},
		},
		map[string]bound{"amount": {min: openapi3.Float64Ptr(0), exclusiveMin: true}},
		InjectUserID,
	),
}

// Catalog returns the tools available to agentType, in prompt order.
func Catalog(agentType contractx.AgentType) []Spec {
	switch agentType {
	case contractx.AgentTypeSupport:
		return supportSpecs
	case contractx.AgentTypeOrder:
		return orderSpecs
	case contractx.AgentTypeBilling:
		return billingSpecs
	default:
		return nil
	}
}

// Lookup finds name in the catalog of agentType.
func Lookup(agentType contractx.AgentType, name string) (Spec, bool) {
	for _, s := range Catalog(agentType) {
		if string(s.ID) == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Schema is the OpenAPI v3 parameter schema the model sees and calls are validated against.
func (s Spec) Schema() *openapi3.Schema {
	return s.params
}

func (s Spec) Capability() contractx.Capability {
	return contractx.Capability{
		Name:        s.Info.Name,
		Description: s.Info.Desc,
		Parameters:  schemaMap(s.params),
	}
}

func Capabilities(agentType contractx.AgentType) []contractx.Capability {
	specs := Catalog(agentType)
	out := make([]contractx.Capability, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Capability())
	}
	return out
}

// schemaMap renders sc in its JSON form.
func schemaMap(sc *openapi3.Schema) map[string]any {
	b, err := json.Marshal(sc)
	if err != nil {
		panic(fmt.Sprintf("marshal tool schema: %v", err))
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("unmarshal tool schema: %v", err))
	}
	return out
}
