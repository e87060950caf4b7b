package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
)

type historyParams struct {
	ConversationID string  `json:"conversationId"`
	Limit          float64 `json:"limit"`
}

type faqParams struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

type orderNumberParams struct {
	OrderNumber string `json:"orderNumber"`
}

type userParams struct {
	UserID string `json:"userId"`
}

type invoiceParams struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

type refundLookupParams struct {
	RefundNumber string `json:"refundNumber"`
}

type refundRequestParams struct {
	UserID  string  `json:"userId"`
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
	Reason  string  `json:"reason"`
}

// decodeParams reads the model's toolParams. Absent or null params are an empty object.
func decodeParams(raw json.RawMessage) (map[string]any, error) {
	params := map[string]any{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return map[string]any{}, fmt.Errorf("%w: toolParams must be a JSON object", contractx.ErrToolParams)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

func (s Spec) inject(params map[string]any, conversationID, userID string) {
	for _, in := range s.Inject {
		switch in {
		case InjectConversationID:
			params[string(in)] = conversationID
		case InjectUserID:
			params[string(in)] = userID
		}
	}
}

// validate checks params against the tool's parameter schema. Null values
// count as absent, and required strings must not be blank.
func (s Spec) validate(params map[string]any) error {
	for k, v := range params {
		if v == nil {
			delete(params, k)
		}
	}

	if err := s.params.VisitJSON(params); err != nil {
		return fmt.Errorf("%w: %s", contractx.ErrToolParams, describeSchemaError(err))
	}

	for _, name := range s.params.Required {
		if str, ok := params[name].(string); ok && strings.TrimSpace(str) == "" {
			return fmt.Errorf("%w: %s is required", contractx.ErrToolParams, name)
		}
	}
	return nil
}

// describeSchemaError turns a schema violation into a message naming the parameter.
func describeSchemaError(err error) string {
	var se *openapi3.SchemaError
	if !errors.As(err, &se) {
		return err.Error()
	}

	name := strings.Join(se.JSONPointer(), ".")
	switch se.SchemaField {
	case "required":
		return name + " is required"
	case "type":
		if se.Schema.Type == openapi3.TypeInteger {
			if _, isNumber := se.Value.(float64); isNumber {
				return name + " must be a whole number"
			}
		}
		article := "a"
		if t := se.Schema.Type; t != "" && strings.ContainsRune("aeiou", rune(t[0])) {
			article = "an"
		}
		return fmt.Sprintf("%s must be %s %s", name, article, se.Schema.Type)
	case "minimum", "exclusiveMinimum":
		if se.Schema.Min != nil && *se.Schema.Min == 0 && se.Schema.ExclusiveMin {
			return name + " must be positive"
		}
		return fmt.Sprintf("%s must be at least %g", name, *se.Schema.Min)
	case "maximum":
		return fmt.Sprintf("%s must be at most %g", name, *se.Schema.Max)
	default:
		return fmt.Sprintf("%s: %s", name, se.Reason)
	}
}

// bind copies validated params into a typed struct.
func bind[T any](params map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(params)
	if err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrToolParams, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrToolParams, err)
	}
	return out, nil
}
