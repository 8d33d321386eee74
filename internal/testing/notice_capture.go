package testing

import (
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// NoticeCapture collects PostgreSQL NOTICE messages, such as the
// "already exists, skipping" notices of an idempotent schema apply.
// Thread-safe for concurrent use.
type NoticeCapture struct {
	notices []*pgconn.Notice
	mu      sync.Mutex
}

func NewNoticeCapture() *NoticeCapture {
	return &NoticeCapture{}
}

// Handler returns a function suitable for pgx's OnNotice callback.
func (nc *NoticeCapture) Handler() func(*pgconn.PgConn, *pgconn.Notice) {
	return func(_ *pgconn.PgConn, n *pgconn.Notice) {
		if n == nil {
			return
		}

		nc.mu.Lock()
		defer nc.mu.Unlock()
		nc.notices = append(nc.notices, n)
	}
}

// Messages returns the message text of every notice received.
func (nc *NoticeCapture) Messages() []string {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	result := make([]string, len(nc.notices))
	for i, n := range nc.notices {
		result[i] = n.Message
	}
	return result
}

// Matching returns the messages containing substr.
func (nc *NoticeCapture) Matching(substr string) []string {
	var result []string
	for _, m := range nc.Messages() {
		if strings.Contains(m, substr) {
			result = append(result, m)
		}
	}
	return result
}

// Reset clears all captured notices.
func (nc *NoticeCapture) Reset() {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	nc.notices = nil
}

// Count returns the number of captured notices.
func (nc *NoticeCapture) Count() int {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return len(nc.notices)
}
