package sqlite

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Timestamps are stored as RFC 3339 text with nanoseconds so that they sort
// lexically in start order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing time %q", s)
	}
	return t, nil
}

// appliedJSON encodes the applied step versions of a run.
func appliedJSON(applied []int64) (string, error) {
	if applied == nil {
		applied = []int64{}
	}
	b, err := json.Marshal(applied)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseApplied(s string) ([]int64, error) {
	var applied []int64
	if err := json.Unmarshal([]byte(s), &applied); err != nil {
		return nil, errors.Wrap(err, "parsing applied versions")
	}
	return applied, nil
}
