package agent

import (
	"encoding/json"
	"sort"
	"strings"
)

const actionUseTool = "use_tool"

// Parsed is the result of reading one model reply.
type Parsed interface {
	isParsed()
}

// FinalAnswer is a reply with no tool call.
type FinalAnswer struct {
	Text string
}

// ToolCall is a reply asking for a tool. Prose is whatever text surrounded
// the call object.
type ToolCall struct {
	Name  string
	Args  map[string]any
	Prose string
	Raw   string
}

// InvalidToolCall is a decodable use_tool object whose tool_name or
// arguments are unusable. The loop reports it back to the model as a failed
// tool result.
type InvalidToolCall struct {
	Name   string
	Raw    string
	Reason string
}

// Malformed is a reply that announces a tool call the parser cannot decode.
type Malformed struct {
	Raw    string
	Reason string
}

func (FinalAnswer) isParsed()     {}
func (ToolCall) isParsed()        {}
func (InvalidToolCall) isParsed() {}
func (Malformed) isParsed()       {}

// Parse extracts the first {"action":"use_tool",...} object from text. The
// object may be bare, fenced, embedded in prose, or nested inside another
// object; a tool call always wins over the surrounding text. A usable call
// anywhere in the text beats an invalid one. Parse never fails: text without
// a tool call is a FinalAnswer.
func Parse(text string) Parsed {
	var invalid *InvalidToolCall

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		end := i + int(dec.InputOffset())

		if wrapper := findWrapper(obj); wrapper != nil {
			raw := text[i:end]
			call, reason := toolCallFrom(wrapper)
			if reason == "" {
				call.Raw = raw
				call.Prose = strings.TrimSpace(stripFence(text[:i]) + " " + stripFence(text[end:]))
				return call
			}
			if invalid == nil {
				invalid = &InvalidToolCall{Name: call.Name, Raw: raw, Reason: reason}
			}
		}
		// Braces inside a decoded object were already looked at.
		i = end - 1
	}

	if invalid != nil {
		return *invalid
	}
	if strings.Contains(text, `"`+actionUseTool+`"`) {
		return Malformed{Raw: text, Reason: "tool call is not valid JSON"}
	}
	return FinalAnswer{Text: strings.TrimSpace(text)}
}

// findWrapper returns obj or the first object nested in it whose action is
// use_tool. Keys are visited in sorted order.
func findWrapper(obj map[string]any) map[string]any {
	if action, _ := obj["action"].(string); action == actionUseTool {
		return obj
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if w := findWrapperIn(obj[k]); w != nil {
			return w
		}
	}
	return nil
}

func findWrapperIn(v any) map[string]any {
	switch x := v.(type) {
	case map[string]any:
		return findWrapper(x)
	case []any:
		for _, item := range x {
			if w := findWrapperIn(item); w != nil {
				return w
			}
		}
	}
	return nil
}

func toolCallFrom(obj map[string]any) (ToolCall, string) {
	name, ok := obj["tool_name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return ToolCall{}, "tool call has no tool_name"
	}
	name = strings.TrimSpace(name)

	var args map[string]any
	switch a := obj["arguments"].(type) {
	case nil:
		args = map[string]any{}
	case map[string]any:
		args = normalizeNumbers(a).(map[string]any)
	default:
		return ToolCall{Name: name}, "tool call arguments must be an object"
	}
	return ToolCall{Name: name, Args: args}, ""
}

// normalizeNumbers turns json.Number into int64 when integral and float64
// otherwise, so integer parameters survive the round trip.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeNumbers(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = normalizeNumbers(val)
		}
		return x
	default:
		return v
	}
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(s)
}
