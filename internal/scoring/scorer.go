// Package scoring turns file metadata and the sandbox outcome text into a
// bounded heuristic threat score.
//
// Checks are independent and additive. The score is their clamped sum, so the
// order of evaluation does not change it, but indicators are reported in the
// order the checks are declared.
package scoring

import (
	"math"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"sentinel-sandbox/internal/verdict"
)

const (
	MaxScore = 100

	baseConfidence      = 0.70
	perIndicatorBonus   = 0.05
	tinyFileThreshold   = 1024
	largeFileThreshold  = 50_000_000
	doubleExtConfidence = 0.1
)

var (
	executableSuffixes = []string{".exe", ".dll", ".scr"}
	scriptSuffixes     = []string{".js", ".vbs", ".bat"}
	failureMarkers     = []string{"error", "failed"}
	executedMarker     = "executed"
)

// Input is everything a check may look at.
type Input struct {
	Path      string
	Outcome   string
	Size      int64
	SizeKnown bool
}

// Check is one heuristic contribution.
type Check struct {
	Name            string
	Indicator       string
	Points          int
	ConfidenceBonus float64
	Match           func(in Input) bool
}

// DefaultChecks returns the built-in checks in reporting order. Metadata
// checks come before checks on the outcome text.
func DefaultChecks() []Check {
	return []Check{
		{
			Name:      "executable_extension",
			Indicator: "Executable file type",
			Points:    20,
			Match:     func(in Input) bool { return hasAnySuffix(in.Path, executableSuffixes) },
		},
		{
			Name:      "script_extension",
			Indicator: "Script file - higher risk",
			Points:    25,
			Match:     func(in Input) bool { return hasAnySuffix(in.Path, scriptSuffixes) },
		},
		{
			Name:            "double_extension",
			Indicator:       "Suspicious double extension",
			Points:          30,
			ConfidenceBonus: doubleExtConfidence,
			Match:           func(in Input) bool { return strings.Count(in.Path, ".") > 1 },
		},
		{
			Name:      "tiny_file",
			Indicator: "Suspiciously small file size",
			Points:    10,
			Match:     func(in Input) bool { return in.SizeKnown && in.Size < tinyFileThreshold },
		},
		{
			Name:      "large_file",
			Indicator: "Large file size",
			Points:    5,
			Match:     func(in Input) bool { return in.SizeKnown && in.Size > largeFileThreshold },
		},
		{
			Name:      "analysis_issues",
			Indicator: "Analysis encountered issues",
			Points:    15,
			Match:     func(in Input) bool { return containsAny(in.Outcome, failureMarkers) },
		},
		{
			Name:      "isolated_execution",
			Indicator: "Successfully analyzed in isolated environment",
			Points:    0,
			Match:     func(in Input) bool { return strings.Contains(in.Outcome, executedMarker) },
		},
	}
}

// StatFunc returns the size of the file at path.
type StatFunc func(path string) (int64, error)

func osStat(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Scorer applies an ordered list of checks.
type Scorer struct {
	checks []Check
	stat   StatFunc
}

func NewScorer() *Scorer {
	return &Scorer{checks: DefaultChecks(), stat: osStat}
}

// NewScorerWith is NewScorer with a custom check list and size source.
func NewScorerWith(checks []Check, stat StatFunc) *Scorer {
	if stat == nil {
		stat = osStat
	}
	return &Scorer{checks: checks, stat: stat}
}

// Score evaluates path and the analysis outcome text. An unreadable file
// simply contributes no size indicator.
func (s *Scorer) Score(path, outcome string) verdict.ThreatScore {
	in := Input{Path: path, Outcome: outcome}
	if size, err := s.stat(path); err == nil {
		in.Size = size
		in.SizeKnown = true
	} else {
		log.Debug().Err(err).Str("path", path).Msg("file size unavailable for scoring")
	}

	total := 0
	bonus := 0.0
	indicators := make([]string, 0, len(s.checks))
	for _, c := range s.checks {
		if !c.Match(in) {
			continue
		}
		total += c.Points
		bonus += c.ConfidenceBonus
		indicators = append(indicators, c.Indicator)
	}

	score := clamp(total, 0, MaxScore)
	return verdict.ThreatScore{
		Level:      verdict.LevelForScore(score),
		Score:      score,
		Confidence: confidence(len(indicators), bonus),
		Indicators: indicators,
	}
}

func confidence(indicators int, bonus float64) float64 {
	c := baseConfidence + bonus + perIndicatorBonus*float64(indicators)
	c = math.Min(1.0, math.Max(0.0, c))
	return math.Round(c*100) / 100
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hasAnySuffix matches case-sensitively; "SETUP.EXE" is not an executable suffix.
func hasAnySuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
