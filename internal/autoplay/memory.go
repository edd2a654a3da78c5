package autoplay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

const maxRecords = 200

// Record captures one decision the player made.
type Record struct {
	SessionID   string  `json:"session_id"`
	Turn        int     `json:"turn"`
	DecisionID  string  `json:"decision_id"`
	ChoiceID    string  `json:"choice_id"`
	CrisisLevel string  `json:"crisis_level"`
	Stress      float64 `json:"stress"`
	Cohesion    float64 `json:"cohesion"`
	Rationale   string  `json:"rationale,omitempty"`
}

// Outcome is how one played session finished.
type Outcome struct {
	SessionID   string `json:"session_id"`
	Turns       int    `json:"turns"`
	Decisions   int    `json:"decisions"`
	Ending      string `json:"ending"`
	VictoryType string `json:"victory_type,omitempty"`
}

// Journal keeps a ring of recent decisions and every outcome.
type Journal struct {
	mu       sync.Mutex
	Records  []Record  `json:"records"`
	Outcomes []Outcome `json:"outcomes"`
}

// LoadJournal reads a journal file. Returns an empty journal if not found.
func LoadJournal(path string) *Journal {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Journal{}
	}
	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		slog.Warn("autoplay journal corrupted, starting fresh", "path", path, "error", err)
		return &Journal{}
	}
	return &j
}

// Save writes the journal to path.
func (j *Journal) Save(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Record adds a decision, trimming to maxRecords.
func (j *Journal) Record(r Record) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Records = append(j.Records, r)
	if len(j.Records) > maxRecords {
		j.Records = j.Records[len(j.Records)-maxRecords:]
	}
}

// Finish adds a session outcome.
func (j *Journal) Finish(o Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Outcomes = append(j.Outcomes, o)
}

// Tally counts outcomes by ending label.
func (j *Journal) Tally() map[string]int {
	j.mu.Lock()
	defer j.mu.Unlock()

	counts := make(map[string]int)
	for _, o := range j.Outcomes {
		label := o.Ending
		if o.VictoryType != "" {
			label += ":" + o.VictoryType
		}
		counts[label]++
	}
	return counts
}
