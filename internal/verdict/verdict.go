package verdict

import (
	"encoding/json"
	"io"
	"time"
)

// Level is the categorical threat level derived from a score.
type Level string

const (
	LevelLow     Level = "LOW"
	LevelMedium  Level = "MEDIUM"
	LevelHigh    Level = "HIGH"
	LevelUnknown Level = "UNKNOWN"
)

// LevelForScore maps a clamped score to its level: [0,30) LOW, [30,70) MEDIUM, [70,100] HIGH.
func LevelForScore(score int) Level {
	switch {
	case score < 30:
		return LevelLow
	case score < 70:
		return LevelMedium
	default:
		return LevelHigh
	}
}

type Status string

const (
	StatusAnalyzed Status = "ANALYZED"
	StatusError    Status = "ERROR"
)

type IsolationMethod string

const (
	IsolationFirecracker IsolationMethod = "firecracker_microvm"
	IsolationNone        IsolationMethod = "none"
)

// ThreatScore is the heuristic risk assessment of one target.
type ThreatScore struct {
	Level      Level    `json:"level"`
	Score      int      `json:"score"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// Unknown is the score attached to verdicts that never reached the scorer.
func Unknown(indicator string) ThreatScore {
	return ThreatScore{
		Level:      LevelUnknown,
		Score:      0,
		Confidence: 0.0,
		Indicators: []string{indicator},
	}
}

// Verdict is the single result document produced per invocation.
type Verdict struct {
	Status          Status          `json:"status"`
	Details         string          `json:"details"`
	IsolationMethod IsolationMethod `json:"isolation_method"`
	ThreatScore     ThreatScore     `json:"threat_score"`
	Timestamp       uint64          `json:"timestamp"`
}

// Assembler stamps verdicts with the wall clock.
type Assembler struct {
	now func() time.Time
}

func NewAssembler() Assembler {
	return Assembler{now: time.Now}
}

// NewAssemblerAt returns an assembler reading time from now. Used by tests.
func NewAssemblerAt(now func() time.Time) Assembler {
	return Assembler{now: now}
}

func (a Assembler) Assemble(status Status, details string, method IsolationMethod, score ThreatScore) Verdict {
	now := a.now
	if now == nil {
		now = time.Now
	}

	indicators := make([]string, len(score.Indicators))
	copy(indicators, score.Indicators)
	score.Indicators = indicators

	return Verdict{
		Status:          status,
		Details:         details,
		IsolationMethod: method,
		ThreatScore:     score,
		Timestamp:       uint64(now().Unix()), // #nosec G115 -- wall clock is past the epoch
	}
}

// Encode writes v as indented JSON followed by a newline.
func Encode(w io.Writer, v Verdict) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
