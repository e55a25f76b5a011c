package usecase

import (
	"unicode/utf8"

	"portfolio-ai/internal/domain"
)

// contentLength counts characters (runes) of string content. Other content
// types count as zero; validation rejects them later.
func contentLength(content any) int {
	if s, ok := content.(string); ok {
		return utf8.RuneCountInString(s)
	}
	return 0
}

// ConversationLength is the character length of the system prompt plus every
// message body.
func ConversationLength(system string, msgs []domain.RawMessage) int {
	total := utf8.RuneCountInString(system)
	for _, m := range msgs {
		total += contentLength(m.Content)
	}
	return total
}

// TruncateConversation drops the oldest messages until the conversation fits
// maxLength. It reports whether anything was dropped.
//
// The result is a contiguous suffix of msgs that fits, walking back from the
// newest message and stopping at the first one that does not fit. If that
// suffix does not end with a user message, the most recent user message of
// msgs is appended so the model always sees the latest question. That append
// may push the total over maxLength.
func TruncateConversation(system string, msgs []domain.RawMessage, maxLength int) ([]domain.RawMessage, bool) {
	if ConversationLength(system, msgs) <= maxLength {
		return msgs, false
	}

	used := utf8.RuneCountInString(system)
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		n := contentLength(msgs[i].Content)
		if used+n > maxLength {
			break
		}
		used += n
		start = i
	}

	kept := make([]domain.RawMessage, 0, len(msgs)-start+1)
	kept = append(kept, msgs[start:]...)

	if len(kept) == 0 || kept[len(kept)-1].Role != domain.RoleUser {
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role == domain.RoleUser {
				kept = append(kept, msgs[i])
				break
			}
		}
	}

	return kept, true
}
