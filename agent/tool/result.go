package tool

import "encoding/json"

const errToolNotFound = "Tool not found"

// Result is the payload fed back to the model after a tool runs. It marshals
// flat: {"success": true, "order": {...}} or {"success": false, "error": "..."}.
type Result struct {
	Success bool
	Error   string
	Data    map[string]any
}

func succeed(key string, value any) Result {
	return Result{Success: true, Data: map[string]any{key: value}}
}

func succeedWith(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

func fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		out[k] = v
	}
	out["success"] = r.Success
	if !r.Success {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

// String renders the result as the JSON text used in follow-up prompts.
func (r Result) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"unserializable tool result"}`
	}
	return string(b)
}
