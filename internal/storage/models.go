package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"sentinel-sandbox/internal/verdict"
)

// VerdictRecord is one audited analysis.
type VerdictRecord struct {
	AnalysisID      string    `json:"analysis_id" db:"analysis_id"`
	Target          string    `json:"target" db:"target"`
	TargetSHA256    string    `json:"target_sha256,omitempty" db:"target_sha256"` // empty when the target was unreadable
	Status          string    `json:"status" db:"status"`
	Details         string    `json:"details" db:"details"`
	IsolationMethod string    `json:"isolation_method" db:"isolation_method"`
	Level           string    `json:"level" db:"level"`
	Score           int       `json:"score" db:"score"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	Indicators      []string  `json:"indicators" db:"indicators"`
	Timestamp       int64     `json:"timestamp" db:"verdict_time"`
	RecordedAt      time.Time `json:"recorded_at" db:"recorded_at"`
}

// FromVerdict builds the audit record for v. The target is hashed if it can
// be read; a failure to hash is not an error.
func FromVerdict(analysisID, target string, v verdict.Verdict) *VerdictRecord {
	rec := &VerdictRecord{
		AnalysisID:      analysisID,
		Target:          target,
		Status:          string(v.Status),
		Details:         v.Details,
		IsolationMethod: string(v.IsolationMethod),
		Level:           string(v.ThreatScore.Level),
		Score:           v.ThreatScore.Score,
		Confidence:      v.ThreatScore.Confidence,
		Indicators:      append([]string{}, v.ThreatScore.Indicators...),
		Timestamp:       int64(v.Timestamp), // #nosec G115 -- unix seconds fit in int64
		RecordedAt:      time.Now().UTC(),
	}
	if sum, err := HashFile(target); err == nil {
		rec.TargetSHA256 = sum
	}
	return rec
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path)) // #nosec G304 -- the user-supplied analysis target
	if err != nil {
		return "", fmt.Errorf("opening target: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing target: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
