package telegram

import (
	"sync"
	"time"

	"mediaudit/api/internal/audit"
)

const (
	debounce  = 1200 * time.Millisecond
	maxPixels = 18_000_000
)

// session is the per-chat audit in progress. A new bill replaces the previous
// one together with its text and result.
type session struct {
	mu sync.Mutex

	Bill     []byte
	BillName string
	Pages    int
	BillText string
	Result   *audit.Result
	// Insurer is a library document name; "" audits against the baseline only.
	Insurer string

	// gen растёт при каждом новом счёте
	gen  uint64
	busy bool
}

type photoBatch struct {
	ChatID       int64
	Key          string // "grp:<mediaGroupID>" | "chat:<chatID>"
	MediaGroupID string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}

var (
	sessions sync.Map // chatID -> *session
	batches  sync.Map // key -> *photoBatch
)

func getSession(chatID int64) *session {
	v, _ := sessions.LoadOrStore(chatID, &session{})
	return v.(*session)
}

func resetSession(chatID int64) {
	s := getSession(chatID)
	s.mu.Lock()
	s.Bill, s.BillName, s.Pages = nil, "", 0
	s.BillText, s.Result = "", nil
	s.gen++
	s.mu.Unlock()
}

func (s *session) setBill(data []byte, name string, pages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Bill, s.BillName, s.Pages = data, name, pages
	s.BillText, s.Result = "", nil
	s.gen++
}

// setBillText replaces the bill with pasted text.
func (s *session) setBillText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Bill, s.BillName, s.Pages = nil, "", 0
	s.BillText, s.Result = text, nil
	s.gen++
}

// storeExtracted keeps text extracted from the bill of generation gen. It is
// dropped when another bill arrived meanwhile.
func (s *session) storeExtracted(gen uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.BillText, s.Result = text, nil
	return true
}

// acquire marks the session busy; false when an extraction or audit is
// already running for this chat.
func (s *session) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

type snapshot struct {
	Bill     []byte
	BillName string
	BillText string
	Insurer  string
	Result   *audit.Result
	Gen      uint64
}

func (s *session) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{Bill: s.Bill, BillName: s.BillName, BillText: s.BillText, Insurer: s.Insurer, Result: s.Result, Gen: s.gen}
}

// setResult stores the audit of generation gen; false when the bill changed.
func (s *session) setResult(gen uint64, res audit.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.Result = &res
	return true
}

func (s *session) setInsurer(name string) {
	s.mu.Lock()
	s.Insurer = name
	s.mu.Unlock()
}
