package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type recordState string

const (
	stateRunning recordState = "running"
	stateDone    recordState = "done"
)

// record is what the store keeps per scope. A done record replays Code and
// Body; LoanStatus is the loan status that response reported.
type record struct {
	State       recordState `json:"state"`
	Op          operation   `json:"op"`
	LoanID      string      `json:"loan_id"`
	Fingerprint string      `json:"fingerprint"`
	Code        int         `json:"code,omitempty"`
	Body        []byte      `json:"body,omitempty"`
	LoanStatus  string      `json:"loan_status,omitempty"`
	RequestAt   time.Time   `json:"request_at"`
}

func (r record) replayable() bool { return r.State == stateDone && r.Code != 0 }

// replayStore keeps idempotency records in redis. A running claim expires
// after claimTTL so a crashed handler does not block its key forever.
type replayStore struct {
	rdb      redis.Cmdable
	claimTTL time.Duration
	doneTTL  time.Duration
}

func (s *replayStore) claim(ctx context.Context, sc scope, r record) (bool, error) {
	r.State = stateRunning
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, sc.key(), payload, s.claimTTL).Result()
}

func (s *replayStore) load(ctx context.Context, sc scope) (record, error) {
	var r record
	raw, err := s.rdb.Get(ctx, sc.key()).Bytes()
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(raw, &r)
	return r, err
}

func (s *replayStore) complete(ctx context.Context, sc scope, r record) error {
	r.State = stateDone
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sc.key(), payload, s.doneTTL).Err()
}

// release drops a claim so the same request id may run again.
func (s *replayStore) release(ctx context.Context, sc scope) error {
	return s.rdb.Del(ctx, sc.key()).Err()
}

// loanStatusOf reads the "status" field of a loan response body.
func loanStatusOf(body []byte) string {
	var v struct {
		Status string `json:"status"`
	}
	if json.Unmarshal(body, &v) != nil {
		return ""
	}
	return v.Status
}
