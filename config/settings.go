// ABOUTME: Runtime settings that can change while the process runs
// ABOUTME: Holds the automatic RFQ sending toggle
package config

import "sync"

// Settings holds runtime preferences that operators may flip while the
// process is running. It is passed explicitly to whoever needs it.
type Settings struct {
	mu          sync.RWMutex
	autoSendRFQ bool
}

func NewSettings(autoSendRFQ bool) *Settings {
	return &Settings{autoSendRFQ: autoSendRFQ}
}

func (s *Settings) AutoSendRFQ() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoSendRFQ
}

func (s *Settings) SetAutoSendRFQ(v bool) {
	s.mu.Lock()
	s.autoSendRFQ = v
	s.mu.Unlock()
}
