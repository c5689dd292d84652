package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Item is one record of the lost-and-found collection, tagged with its key.
type Item struct {
	ID             string  `json:"id"`
	ItemType       string  `json:"item_type"`
	Status         string  `json:"status"`
	ItemName       string  `json:"item_name"`
	Description    string  `json:"description"`
	Location       string  `json:"location"`
	ImageURL       *string `json:"image_url,omitempty"`
	TelegramUserID string  `json:"telegram_user_id"`
	Timestamp      int64   `json:"timestamp"`
}

// Default item types and statuses offered by the filter selectors. Records
// may carry any other value; nothing is validated against these.
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"

	ItemStatusOpen   = "open"
	ItemStatusClosed = "closed"
)

// HasImage reports whether the item carries a non-empty image URL.
func (it Item) HasImage() bool {
	return it.ImageURL != nil && *it.ImageURL != ""
}

// record mirrors the stored field set. Every field is decoded leniently so a
// record written by a sloppy client still renders.
type record struct {
	ID             text            `json:"id"`
	ItemType       text            `json:"item_type"`
	Status         text            `json:"status"`
	ItemName       text            `json:"item_name"`
	Description    text            `json:"description"`
	Location       text            `json:"location"`
	ImageURL       *text           `json:"image_url"`
	TelegramUserID text            `json:"telegram_user_id"`
	Timestamp      json.RawMessage `json:"timestamp"`
}

// UnmarshalJSON decodes a stored record. Missing fields become zero values.
// Stored records normally carry no id; DecodeRecord overrides it with the key.
func (it *Item) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	*it = Item{
		ID:             string(r.ID),
		ItemType:       string(r.ItemType),
		Status:         string(r.Status),
		ItemName:       string(r.ItemName),
		Description:    string(r.Description),
		Location:       string(r.Location),
		TelegramUserID: string(r.TelegramUserID),
		Timestamp:      parseTimestamp(r.Timestamp),
	}
	if r.ImageURL != nil {
		s := string(*r.ImageURL)
		it.ImageURL = &s
	}
	return nil
}

// text is a string that also accepts JSON numbers and booleans, keeping their
// literal form. null decodes to the empty string.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		*t = text(data)
	}
	return nil
}

// parseTimestamp reads epoch seconds from an integer, fractional, or quoted
// number. Anything else is 0.
func parseTimestamp(raw json.RawMessage) int64 {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	if s == "" || s == "null" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// Snapshot is the complete contents of the collection at one point in time,
// keyed by record ID. A nil or empty snapshot means the collection is empty.
type Snapshot map[string]Item

// DecodeRecord decodes a single stored record and tags it with id.
func DecodeRecord(id string, data []byte) (Item, error) {
	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return Item{}, fmt.Errorf("decoding record %q: %w", id, err)
	}
	it.ID = id
	return it, nil
}

// DecodeSnapshot decodes a collection export of the form {"id": {record}}.
// Records that are not JSON objects are skipped and their IDs returned.
// A JSON null decodes to a nil snapshot.
func DecodeSnapshot(data []byte) (Snapshot, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return DecodeRecords(raw)
}

// DecodeRecords decodes already split records. See DecodeSnapshot.
func DecodeRecords(raw map[string]json.RawMessage) (Snapshot, []string, error) {
	if raw == nil {
		return nil, nil, nil
	}

	snap := make(Snapshot, len(raw))
	var skipped []string
	for id, data := range raw {
		it, err := DecodeRecord(id, data)
		if err != nil {
			skipped = append(skipped, id)
			continue
		}
		snap[id] = it
	}
	return snap, skipped, nil
}
