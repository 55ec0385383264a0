package gateway

import (
	"bytes"
	"encoding/json"
)

// FallbackReplyText is used when the endpoint answered without any text field.
const FallbackReplyText = "could not process the request"

const (
	fallbackKind    = "simple"
	fallbackContext = "image analysis"
)

// Normalize turns a raw response body into a Reply. It never fails: bodies
// that are not a JSON object, including JSON strings that unwrap to plain
// text, become a simple reply whose text is the innermost string.
func Normalize(body []byte) Reply {
	obj := decodeObject(body)

	text := firstString(obj, "respuesta", "imageAnalysis", "message")
	if text == "" {
		text = FallbackReplyText
	}

	ticket, ok := obj["ticket"]
	if !ok || !truthy(ticket) {
		return PlainReply{Text: text}
	}

	reply := TicketReply{Text: text}
	if fields, ok := ticket.(map[string]interface{}); ok {
		reply.TicketID = firstString(fields, "ticketId")
		reply.ClientName = firstString(fields, "clienteNombre")
		reply.ImageURL = firstString(fields, "imageUrl")
	}
	return reply
}

// decodeObject unwraps any number of JSON string layers until it reaches an
// object. Anything else yields the synthesized simple shape.
func decodeObject(body []byte) map[string]interface{} {
	raw := string(bytes.TrimSpace(body))
	current := raw

	for {
		var value interface{}
		if err := json.Unmarshal([]byte(current), &value); err != nil {
			return synthesize(current)
		}
		switch v := value.(type) {
		case map[string]interface{}:
			return v
		case string:
			current = v
		default:
			return synthesize(current)
		}
	}
}

func synthesize(text string) map[string]interface{} {
	return map[string]interface{}{
		"tipo":      fallbackKind,
		"respuesta": text,
		"contexto":  fallbackContext,
	}
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
