package goquery

import (
	"strings"

	"github.com/fwojciec/poesaver"
)

// ExtractRegion returns the slice of visible text that holds the
// conversation: everything after the shared-conversation marker, cut at the
// earliest trailing chrome marker. Without a marker the text is returned
// unchanged and found is false.
func ExtractRegion(text string) (region string, found bool) {
	_, after, found := strings.Cut(text, sharedConversationMarker)
	if !found {
		return text, false
	}
	end := len(after)
	for _, marker := range trailingChromeMarkers {
		if i := strings.Index(after, marker); i >= 0 && i < end {
			end = i
		}
	}
	return strings.TrimSpace(after[:end]), true
}

type segmentState int

const (
	stateIdle segmentState = iota
	stateHumanOpen
	stateAssistantOpen
)

// segmenter groups lines into turns. An assistant turn opens at a bot-name
// marker line; a human turn opens at the first content line seen while no
// turn is open. Every following content line joins the open turn.
type segmenter struct {
	parser   *Parser
	state    segmentState
	sender   string
	buf      []string
	messages []*poesaver.Message
}

func (s *segmenter) feed(line string) {
	if skippedLines[line] {
		return
	}
	if !poesaver.IsValidContent(line) {
		s.parser.logger.Warn("skipping potentially corrupted line", "line", truncateRunes(line, 50))
		return
	}
	if name, ok := BotNameFromLine(line); ok {
		s.flush()
		s.state = stateAssistantOpen
		s.sender = name
		return
	}
	if IsNavigation(line) {
		return
	}
	if s.state == stateIdle {
		s.state = stateHumanOpen
		s.sender = poesaver.HumanSender
	}
	s.buf = append(s.buf, line)
}

func (s *segmenter) flush() {
	defer func() {
		s.state = stateIdle
		s.sender = ""
		s.buf = nil
	}()

	var role poesaver.Role
	switch s.state {
	case stateIdle:
		return
	case stateHumanOpen:
		role = poesaver.RoleHuman
	case stateAssistantOpen:
		role = poesaver.RoleAssistant
	}

	content := strings.TrimSpace(strings.Join(s.buf, "\n"))
	if content == "" {
		return
	}
	if !poesaver.IsValidContent(content) {
		s.parser.logger.Warn("dropping message with invalid content", "sender", s.sender)
		return
	}
	s.messages = append(s.messages, &poesaver.Message{
		Sender:  s.sender,
		Content: content,
		Role:    role,
	})
}

// SegmentTurns splits conversation text into messages.
func (p *Parser) SegmentTurns(text string) []*poesaver.Message {
	s := &segmenter{parser: p}
	for _, line := range nonEmptyLines(text) {
		s.feed(line)
	}
	s.flush()
	return s.messages
}

// ClassifyLines is the last-resort extractor: every sufficiently long line
// that is not navigation becomes its own message, attributed to the
// assistant when it mentions one.
func (p *Parser) ClassifyLines(text string) []*poesaver.Message {
	var messages []*poesaver.Message
	for _, line := range nonEmptyLines(text) {
		if len([]rune(line)) <= minClassifiedLineLength || IsNavigation(line) {
			continue
		}
		msg := &poesaver.Message{
			Sender:  poesaver.HumanSender,
			Content: line,
			Role:    poesaver.RoleHuman,
		}
		if hasBotIndicator(line) {
			msg.Sender = poesaver.AssistantSender
			msg.Role = poesaver.RoleAssistant
		}
		messages = append(messages, msg)
	}
	return messages
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
