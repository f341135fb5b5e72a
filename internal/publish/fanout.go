package publish

import (
	"github.com/gopcua/opcua/ua"
	"github.com/rs/zerolog"

	"github.com/nexus-edge/publish-engine/internal/domain"
)

// Fanout implements SessionFanout (spec.md §4.4, §6): when a session loses
// its last subscription, every remaining queued PublishRequest is drained
// with serviceResult = BadNoSubscription and sent via the session's secure
// channel.
type Fanout struct {
	logger zerolog.Logger
}

// NewFanout constructs a Fanout.
func NewFanout(logger zerolog.Logger) *Fanout {
	return &Fanout{logger: logger.With().Str("component", "session-fanout").Logger()}
}

// Drain empties sess's PublishRequest queue, responding to each with
// BadNoSubscription. A missing channel is a silent no-op condition
// (spec.md §7), as is an already-empty queue.
func (f *Fanout) Drain(sess *domain.Session) {
	if sess.Channel == nil {
		return
	}
	entries := sess.DrainPublishRequests()
	if len(entries) == 0 {
		return
	}

	for _, entry := range entries {
		resp := domain.NewPublishResponse(0, nil, false, nil, ua.StatusBadNoSubscription)
		if err := sess.Channel.SendPublishResponse(entry.RequestID, resp); err != nil {
			f.logger.Warn().
				Err(err).
				Str("session_id", sess.SessionID).
				Uint32("request_id", entry.RequestID).
				Msg("Failed to send no-subscription fanout response")
		}
	}

	f.logger.Info().
		Str("session_id", sess.SessionID).
		Int("entries", len(entries)).
		Msg("Drained PublishRequest queue with BadNoSubscription")
}
