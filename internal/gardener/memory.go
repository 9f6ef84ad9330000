package gardener

import (
	"encoding/json"
	"log/slog"
	"os"
)

const maxRecords = 10

// CycleRecord captures what one watch cycle saw.
type CycleRecord struct {
	Minute     int    `json:"minute"`
	Plots      int    `json:"plots"`
	HeroLevel  int    `json:"hero_level"`
	Gold       int    `json:"gold"`
	Faults     int    `json:"faults"`
	IdleCycles int    `json:"idle_cycles"`
	Level      string `json:"level"`
}

// CycleMemory manages a ring of recent cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
}

// LoadMemory reads the memory file from disk. Returns empty memory if not found.
func LoadMemory(path string) *CycleMemory {
	data, err := os.ReadFile(path)
	if err != nil {
		return &CycleMemory{}
	}
	var mem CycleMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		slog.Warn("gardener memory corrupted, starting fresh", "error", err)
		return &CycleMemory{}
	}
	return &mem
}

// Save writes the memory to disk.
func (m *CycleMemory) Save(path string) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal gardener memory", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Error("failed to write gardener memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(snap *Snapshot, h *RunHealth) {
	m.Records = append(m.Records, CycleRecord{
		Minute:     snap.Status.Minute,
		Plots:      snap.Status.Plots,
		HeroLevel:  snap.Status.HeroLevel,
		Gold:       snap.Status.Gold,
		Faults:     h.Faults,
		IdleCycles: h.IdleCycles,
		Level:      h.Level,
	})
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Last returns the newest record.
func (m *CycleMemory) Last() (CycleRecord, bool) {
	if len(m.Records) == 0 {
		return CycleRecord{}, false
	}
	return m.Records[len(m.Records)-1], true
}

func (m *CycleMemory) Len() int { return len(m.Records) }
