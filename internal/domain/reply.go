package domain

// ReplyKind classifies the outcome of one chat send.
type ReplyKind string

const (
	// ReplyOK carries the provider's generated text.
	ReplyOK ReplyKind = "ok"
	// ReplyEmpty means the provider answered without usable text.
	ReplyEmpty ReplyKind = "empty"
	// ReplyRejected means validation or prompt configuration failed before any upstream call.
	ReplyRejected ReplyKind = "rejected"
	// ReplyFailed means the upstream call failed.
	ReplyFailed ReplyKind = "failed"
	// ReplyUnavailable means no provider credential is configured.
	ReplyUnavailable ReplyKind = "unavailable"
)

// User-facing reply texts. These are the only strings a chat view ever shows
// for a failed send.
const (
	TextNoMessage       = "Sorry, I need a message to respond to."
	TextInvalidMessage  = "Sorry, there was an issue with your message. Please try again."
	TextConfigError     = "Sorry, there was a configuration error. Please try again later."
	TextEmptyResponse   = "Sorry, I couldn't generate a response."
	TextProcessingError = "Sorry, there was an error processing your message. Please try again."
)

// Reply is the typed result of a chat send.
type Reply struct {
	Kind ReplyKind
	Text string
}

// Content returns the reply text, or nil when the feature is unavailable.
func (r Reply) Content() *string {
	if r.Kind == ReplyUnavailable {
		return nil
	}
	s := r.Text
	return &s
}

// ReplyFromContent rebuilds a Reply from its wire form.
func ReplyFromContent(kind ReplyKind, content *string) Reply {
	if content == nil {
		return Reply{Kind: ReplyUnavailable}
	}
	if kind == "" {
		kind = ReplyOK
		if *content == "" {
			kind = ReplyEmpty
		}
	}
	return Reply{Kind: kind, Text: *content}
}
