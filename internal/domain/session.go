package domain

import "time"

// Session is the mutable per-demo-run record of basket contents, scan history
// and nudge history. It is created fresh on every profile selection and fully
// replaced (never merged) on profile switch, return-home and order completion.
// Single-writer: the owning coordinator serializes all mutation.
type Session struct {
	ProfileID    string        `json:"profileId"`
	Basket       []BasketItem  `json:"basket"`
	Scans        []ScanEvent   `json:"scans"`
	NudgeHistory []NudgeRecord `json:"nudgeHistory"`
}

// NewSession returns an empty session bound to a profile
func NewSession(profileID string) *Session {
	return &Session{
		ProfileID:    profileID,
		Basket:       []BasketItem{},
		Scans:        []ScanEvent{},
		NudgeHistory: []NudgeRecord{},
	}
}

// Clone returns a deep copy of the session. The dispatcher hands clones to
// asynchronous engine calls so they never read a basket the event thread is
// still mutating.
func (s *Session) Clone() *Session {
	clone := &Session{
		ProfileID:    s.ProfileID,
		Basket:       make([]BasketItem, len(s.Basket)),
		Scans:        make([]ScanEvent, len(s.Scans)),
		NudgeHistory: make([]NudgeRecord, len(s.NudgeHistory)),
	}
	copy(clone.Basket, s.Basket)
	copy(clone.Scans, s.Scans)
	copy(clone.NudgeHistory, s.NudgeHistory)
	return clone
}

// AddItem adds one unit of a SKU to the basket, incrementing the quantity if
// the SKU is already present and appending otherwise. Basket order is
// first-added order.
func (s *Session) AddItem(sku string) {
	for i := range s.Basket {
		if s.Basket[i].SKU == sku {
			s.Basket[i].Qty++
			return
		}
	}
	s.Basket = append(s.Basket, BasketItem{SKU: sku, Qty: 1})
}

// Quantity returns the basket quantity for a SKU, zero if absent
func (s *Session) Quantity(sku string) int {
	for i := range s.Basket {
		if s.Basket[i].SKU == sku {
			return s.Basket[i].Qty
		}
	}
	return 0
}

// ItemCount returns the total number of units in the basket
func (s *Session) ItemCount() int {
	count := 0
	for i := range s.Basket {
		count += s.Basket[i].Qty
	}
	return count
}

// RecordScan appends a scan event to the history
func (s *Session) RecordScan(sku string, at time.Time) {
	s.Scans = append(s.Scans, ScanEvent{SKU: sku, Timestamp: at})
}

// RecordNudge appends a presented candidate to the nudge history
func (s *Session) RecordNudge(c NudgeCandidate, source NudgeSource, at time.Time) {
	s.NudgeHistory = append(s.NudgeHistory, NudgeRecord{
		CandidateID: c.ID,
		Type:        c.Type,
		Tag:         c.Tag,
		Title:       c.Title,
		Reason:      c.Reason,
		Savings:     c.Savings,
		Source:      source,
		PresentedAt: at,
	})
}
