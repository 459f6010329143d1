package feed

import (
	"encoding/json"

	"f1livetiming/pkg/lapstore"
	"f1livetiming/pkg/openf1"
)

type handler func(data json.RawMessage) ([]lapstore.Event, error)

// dispatch maps a stream topic to its decoder.
var dispatch = map[string]handler{
	openf1.TopicPosition: records(positionEvent),
	openf1.TopicLap:      records(lapEvent),
	openf1.TopicInterval: records(intervalEvent),
	openf1.TopicStint:    records(stintEvent),
	openf1.TopicSession:  records(sessionEvent),
	openf1.TopicResult:   records(resultEvent),
}

func records[T any](convert func(T) lapstore.Event) handler {
	return func(data json.RawMessage) ([]lapstore.Event, error) {
		items, err := openf1.DecodeItems[T](data)
		if err != nil {
			return nil, err
		}
		return convertAll(items, convert), nil
	}
}

func positionEvent(p openf1.Position) lapstore.Event {
	return lapstore.PositionEvent{Position: openf1.ToPosition(p)}
}

func lapEvent(l openf1.Lap) lapstore.Event {
	return lapstore.LapEvent{Lap: openf1.ToLap(l)}
}

func intervalEvent(i openf1.Interval) lapstore.Event {
	return lapstore.IntervalEvent{Interval: openf1.ToInterval(i)}
}

func stintEvent(s openf1.Stint) lapstore.Event {
	return lapstore.StintEvent{Stint: openf1.ToStint(s)}
}

func sessionEvent(s openf1.SessionStatus) lapstore.Event {
	e := lapstore.SessionEvent{Flag: openf1.Flag(s), Message: s.Message}
	if s.Date != nil {
		e.Timestamp = s.Date.UTC()
	}
	return e
}

func resultEvent(r openf1.Result) lapstore.Event {
	e := lapstore.ResultEvent{Driver: r.DriverNumber, Status: openf1.ResultStatus(r)}
	if r.Position != nil {
		e.Position = *r.Position
	}
	return e
}

func convertAll[T any](items []T, convert func(T) lapstore.Event) []lapstore.Event {
	events := make([]lapstore.Event, 0, len(items))
	for _, it := range items {
		events = append(events, convert(it))
	}
	return events
}
