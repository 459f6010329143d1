package openf1

import (
	"bytes"
	"encoding/json"

	"f1livetiming/pkg/caster"
)

const (
	TopicPosition = "position"
	TopicLap      = "lap"
	TopicInterval = "interval"
	TopicStint    = "stint"
	TopicSession  = "session"
	TopicResult   = "result"
)

// Topics lists every stream subscribed for a session.
var Topics = []string{TopicPosition, TopicLap, TopicInterval, TopicStint, TopicSession, TopicResult}

// Subscribe is the outbound stream subscription message.
type Subscribe struct {
	Type       string `json:"type"`
	Stream     string `json:"stream"`
	SessionKey int    `json:"session_key"`
}

func NewSubscribe(stream string, sessionKey int) Subscribe {
	return Subscribe{Type: "subscribe", Stream: stream, SessionKey: sessionKey}
}

// Frame is an inbound stream message. Data holds one record or an array of records.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeFrame parses a raw stream message.
func DecodeFrame(raw []byte) (Frame, error) {
	f, err := caster.JSONCaster[Frame]{}.From(raw)
	if err != nil {
		return Frame{}, newError(KindParse, "decode frame", err)
	}
	if f.Type == "" {
		return Frame{}, newError(KindProtocol, "decode frame", errMissingType)
	}
	return f, nil
}

// DecodeItems decodes frame data that is either a single T or a []T.
func DecodeItems[T any](data json.RawMessage) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		items, err := caster.JSONCaster[[]T]{}.From(data)
		if err != nil {
			return nil, newError(KindParse, "decode items", err)
		}
		return items, nil
	}
	item, err := caster.JSONCaster[T]{}.From(data)
	if err != nil {
		return nil, newError(KindParse, "decode item", err)
	}
	return []T{item}, nil
}
