package chat

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Parse normalizes a raw provider payload into a ParsedResponse.
// Three payload shapes are tolerated:
//
//  1. flat: {"text": "...", "tools": [{"name": "...", "args": {...}}]}
//  2. chat-completion envelope: {"choices":[{"message":{"content":"..."}}]}
//     where content may itself be shape 1 serialized as text
//  3. native function calling: {"choices":[{"message":{"tool_calls":
//     [{"function":{"name":"...","arguments":"<json string>"}}]}}]}
//
// Anything that fails to parse degrades to "entire body is plain text,
// zero tool calls". Parse never panics and never returns an error.
func Parse(raw string) ParsedResponse {
	trimmed := strings.TrimSpace(raw)
	if resp, ok := tryParse(trimmed); ok {
		return resp
	}
	return ParsedResponse{Text: trimmed}
}

func tryParse(raw string) (ParsedResponse, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return ParsedResponse{}, false
	}

	if choices, ok := obj["choices"].([]any); ok {
		return parseEnvelope(choices)
	}

	return parseFlat(obj)
}

// decodeObject decodes a JSON object preserving number fidelity so
// integral arguments stay integers.
func decodeObject(raw string) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// parseFlat handles shape 1. An object with neither "text" nor "tools"
// is not recognized and falls back to plain text.
func parseFlat(obj map[string]any) (ParsedResponse, bool) {
	text, hasText := obj["text"].(string)
	rawTools, hasTools := obj["tools"].([]any)
	if !hasText && !hasTools {
		return ParsedResponse{}, false
	}

	resp := ParsedResponse{Text: text}
	for _, entry := range rawTools {
		call, ok := parseFlatTool(entry)
		if !ok {
			continue // malformed entry, skip without aborting the rest
		}
		resp.ToolCalls = append(resp.ToolCalls, call)
	}
	return resp, true
}

func parseFlatTool(entry any) (ToolCall, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return ToolCall{}, false
	}
	name, ok := m["name"].(string)
	if !ok || name == "" {
		return ToolCall{}, false
	}
	call := ToolCall{Name: name}
	if args, ok := m["args"].(map[string]any); ok {
		call.Arguments = convertArguments(args)
	}
	return call, true
}

// parseEnvelope handles shapes 2 and 3. When both a native tool_calls
// array and a legacy in-content tools array could apply, the native
// array takes precedence.
func parseEnvelope(choices []any) (ParsedResponse, bool) {
	if len(choices) == 0 {
		return ParsedResponse{}, false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return ParsedResponse{}, false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return ParsedResponse{}, false
	}

	content, _ := message["content"].(string)

	if rawCalls, ok := message["tool_calls"].([]any); ok && len(rawCalls) > 0 {
		resp := ParsedResponse{Text: content}
		for _, entry := range rawCalls {
			call, ok := parseNativeToolCall(entry)
			if !ok {
				continue
			}
			resp.ToolCalls = append(resp.ToolCalls, call)
		}
		return resp, true
	}

	// Legacy providers serialize shape 1 inside the content string.
	if inner, ok := decodeObject(strings.TrimSpace(content)); ok {
		if resp, ok := parseFlat(inner); ok {
			return resp, true
		}
	}

	return ParsedResponse{Text: content}, true
}

func parseNativeToolCall(entry any) (ToolCall, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return ToolCall{}, false
	}
	fn, ok := m["function"].(map[string]any)
	if !ok {
		return ToolCall{}, false
	}
	name, ok := fn["name"].(string)
	if !ok || name == "" {
		return ToolCall{}, false
	}
	call := ToolCall{Name: name}
	if rawArgs, ok := fn["arguments"].(string); ok && rawArgs != "" {
		if args, ok := decodeObject(rawArgs); ok {
			call.Arguments = convertArguments(args)
		}
	}
	return call, true
}

func convertArguments(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = convertValue(v)
	}
	return out
}

// convertValue converts decoded JSON values preserving shape: booleans,
// integral numbers as int, non-integral as float64, strings, and
// recursively arrays and objects.
func convertValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		return convertArguments(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out
	default:
		return v
	}
}
