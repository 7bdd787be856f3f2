package goquery

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/poesaver"
)

// nextDataScriptRe finds the Next.js payload when the script element did not
// survive HTML parsing intact.
var nextDataScriptRe = regexp.MustCompile(`(?s)<script[^>]+id=["']__NEXT_DATA__["'][^>]*>(.*?)</script>`)

// messagesPath locates the message list inside the Next.js payload.
var messagesPath = []string{"props", "pageProps", "data", "mainQuery", "chatShare"}

// TimestampLayout formats converted creation times.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// nextDataPayload returns the raw JSON embedded in the page's __NEXT_DATA__
// script element.
func nextDataPayload(doc *goquery.Document, rawHTML string) (string, bool) {
	if text := doc.Find("script#__NEXT_DATA__").First().Text(); strings.TrimSpace(text) != "" {
		return text, true
	}
	m := nextDataScriptRe.FindStringSubmatch(rawHTML)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", false
	}
	return m[1], true
}

// ExtractStructured decodes the messages carried by a Next.js payload. It
// reports false when the payload is not valid JSON. Entries that are not
// objects or have no text are skipped.
func (p *Parser) ExtractStructured(payload string) ([]*poesaver.Message, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		p.logger.Warn("failed to decode structured payload", "err", err)
		return nil, false
	}

	node, _ := root.(map[string]any)
	for _, key := range messagesPath {
		node = object(node, key)
	}

	var messages []*poesaver.Message
	for i, entry := range array(node, "messages") {
		m, ok := entry.(map[string]any)
		if !ok {
			p.logger.Warn("skipping malformed message entry", "index", i)
			continue
		}
		if raw, present := m["text"]; present && raw != nil {
			if _, ok := raw.(string); !ok {
				p.logger.Warn("skipping message entry with non-text body", "index", i)
				continue
			}
		}
		text := strings.TrimSpace(str(m, "text"))
		if text == "" {
			continue
		}

		author := str(m, "author")
		msg := &poesaver.Message{
			Content:   text,
			Timestamp: creationTime(m["creationTime"]),
		}
		if strings.EqualFold(author, "human") {
			msg.Role = poesaver.RoleHuman
			msg.Sender = poesaver.HumanSender
		} else {
			msg.Role = poesaver.RoleAssistant
			msg.Sender = assistantSender(object(m, "authorBot"), author)
		}
		messages = append(messages, msg)
	}
	return messages, true
}

func assistantSender(bot map[string]any, author string) string {
	for _, name := range []string{str(bot, "displayName"), str(bot, "handle"), author} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return poesaver.AssistantSender
}

// creationTime converts a microsecond epoch value into an RFC 3339 instant.
// Strings are carried through unchanged. Values that cannot be represented
// fall back to their raw form.
func creationTime(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		micros, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil || math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
				return t.String()
			}
			micros = int64(f)
		}
		ts := time.UnixMicro(micros).UTC()
		if ts.Year() < 1 || ts.Year() > 9999 {
			return t.String()
		}
		return ts.Format(TimestampLayout)
	default:
		return ""
	}
}

// object returns m[key] as an object, or an empty object when m is nil or
// the value has another type.
func object(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

// array returns m[key] as an array, or nil when it has another type.
func array(m map[string]any, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}

// str returns m[key] as a string, or "" when it has another type.
func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
