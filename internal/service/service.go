// Package service implements the marketplace business operations on top of
// the repository layer.
package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/pkg/common"
	"gorm.io/gorm"
)

// EventPublisher is the subset of the event bus services need
type EventPublisher interface {
	Publish(topic string, args ...interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate reports a unique index violation from postgres or sqlite
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}

// ParseProductRef normalizes the product reference clients send: a raw id
// (string or number) or an embedded object carrying "_id" or "id".
func ParseProductRef(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, apperr.Validation("productId is required")
	}
	switch raw[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return 0, apperr.Validation("Invalid productId")
		}
		for _, key := range []string{"_id", "id", "productId"} {
			if v, ok := obj[key]; ok {
				return ParseProductRef(v)
			}
		}
		return 0, apperr.Validation("productId object carries no id")
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, apperr.Validation("Invalid productId")
		}
		id, err := common.ParseID(s)
		if err != nil || id <= 0 {
			return 0, apperr.Validation("Invalid productId %q", strings.TrimSpace(s))
		}
		return id, nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, apperr.Validation("Invalid productId")
		}
		id, err := n.Int64()
		if err != nil || id <= 0 {
			return 0, apperr.Validation("Invalid productId %s", n.String())
		}
		return id, nil
	}
}
