// Package matching generates and ranks reconciliation candidates. The
// scorer combines three similarity signals into a 0-100 score; the
// engine wraps the candidate queries and applies the scorer to whole
// owner ledgers.
package matching

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/ellvinib/lifeOS-sub004/internal/config"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

// MaxToleranceDays caps per-request date window overrides.
const MaxToleranceDays = 30

// Weights are the integer contributions of the three signals. They must
// sum to 100 so a perfect candidate lands exactly on the top score.
type Weights struct {
	Amount int `json:"amount"`
	Date   int `json:"date"`
	Text   int `json:"text"`
}

// Validate rejects negative weights and sums other than 100.
func (w Weights) Validate() error {
	if w.Amount < 0 || w.Date < 0 || w.Text < 0 {
		return fmt.Errorf("matching weights must be non-negative, got amount=%d date=%d text=%d",
			w.Amount, w.Date, w.Text)
	}
	if sum := w.Amount + w.Date + w.Text; sum != 100 {
		return fmt.Errorf("matching weights must sum to 100, got %d", sum)
	}
	return nil
}

// Config holds the scoring and candidate-generation knobs.
type Config struct {
	ToleranceDays      int
	AmountTolerance    decimal.Decimal
	MaxCandidates      int
	MinMatchScore      int
	AutoMatchThreshold int
	Weights            Weights
}

// DefaultConfig returns the stock matching settings.
func DefaultConfig() Config {
	return Config{
		ToleranceDays:      3,
		AmountTolerance:    decimal.NewFromInt(1),
		MaxCandidates:      10,
		MinMatchScore:      30,
		AutoMatchThreshold: 90,
		Weights:            Weights{Amount: 50, Date: 30, Text: 20},
	}
}

// FromConfig converts the loaded service configuration into matching
// settings.
func FromConfig(mc config.MatchingConfig) Config {
	return Config{
		ToleranceDays:      mc.ToleranceDays,
		AmountTolerance:    decimal.NewFromFloat(mc.AmountTolerance),
		MaxCandidates:      mc.MaxCandidates,
		MinMatchScore:      mc.MinMatchScore,
		AutoMatchThreshold: mc.AutoMatchThreshold,
		Weights:            Weights{Amount: mc.Weights.Amount, Date: mc.Weights.Date, Text: mc.Weights.Text},
	}
}

// Validate checks every knob at startup so misconfiguration fails fast.
func (c Config) Validate() error {
	if c.ToleranceDays < 1 || c.ToleranceDays > MaxToleranceDays {
		return fmt.Errorf("tolerance_days %d outside [1,%d]", c.ToleranceDays, MaxToleranceDays)
	}
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount_tolerance must not be negative, got %s", c.AmountTolerance)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max_candidates must be positive, got %d", c.MaxCandidates)
	}
	if c.MinMatchScore < 0 || c.MinMatchScore > models.MaxMatchScore {
		return fmt.Errorf("min_match_score %d outside [0,%d]", c.MinMatchScore, models.MaxMatchScore)
	}
	if c.AutoMatchThreshold < c.MinMatchScore || c.AutoMatchThreshold > models.MaxMatchScore {
		return fmt.Errorf("auto_match_threshold %d outside [%d,%d]", c.AutoMatchThreshold, c.MinMatchScore, models.MaxMatchScore)
	}
	return c.Weights.Validate()
}

// Breakdown records each signal's raw contribution in [0,1] so review
// screens can show why a score came out the way it did.
type Breakdown struct {
	AmountScore float64 `json:"amount_score"`
	DateScore   float64 `json:"date_score"`
	TextScore   float64 `json:"text_score"`
	DaysApart   int     `json:"days_apart"`
}

// Scorer rates how well a bank transaction pays a given target. The same
// inputs always produce the same score; confirmation flows rely on that
// when they recompute scores instead of trusting the caller's.
type Scorer struct {
	cfg Config
}

// NewScorer builds a scorer from validated settings.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score rates tx against an amount, a date and a free-text target.
// Each signal decays linearly from 1 (exact) to 0 at its tolerance edge;
// the weighted sum is rounded and clamped to [0,100].
func (s *Scorer) Score(tx *models.BankTransaction, amount decimal.Decimal, date time.Time, text string) (int, Breakdown) {
	br := Breakdown{
		AmountScore: s.amountCloseness(tx.Amount, amount),
		DateScore:   s.dateCloseness(tx.ExecutionDate, date),
		TextScore:   descriptionSimilarity(transactionText(tx), text),
		DaysApart:   daysApart(tx.ExecutionDate, date),
	}
	w := s.cfg.Weights
	weighted := float64(w.Amount)*br.AmountScore + float64(w.Date)*br.DateScore + float64(w.Text)*br.TextScore
	score := int(math.Round(weighted))
	if score < 0 {
		score = 0
	}
	if score > models.MaxMatchScore {
		score = models.MaxMatchScore
	}
	return score, br
}

// ScoreInvoice rates tx as the payment for an invoice.
func (s *Scorer) ScoreInvoice(tx *models.BankTransaction, invoice *models.Invoice) (int, Breakdown) {
	return s.Score(tx, invoice.Amount, invoice.IssueDate, invoice.MatchText())
}

func (s *Scorer) amountCloseness(txAmount, target decimal.Decimal) float64 {
	diff := txAmount.Abs().Sub(target.Abs()).Abs()
	if diff.IsZero() {
		return 1
	}
	if !s.cfg.AmountTolerance.IsPositive() {
		return 0
	}
	ratio, _ := diff.Div(s.cfg.AmountTolerance).Float64()
	if ratio >= 1 {
		return 0
	}
	return 1 - ratio
}

func (s *Scorer) dateCloseness(txDate, target time.Time) float64 {
	days := daysApart(txDate, target)
	if days == 0 {
		return 1
	}
	if s.cfg.ToleranceDays < 1 {
		return 0
	}
	ratio := float64(days) / float64(s.cfg.ToleranceDays)
	if ratio >= 1 {
		return 0
	}
	return 1 - ratio
}

// descriptionSimilarity credits every target token with its best
// levenshtein similarity against the transaction tokens and averages the
// credits. Either side blank scores zero.
func descriptionSimilarity(txText, target string) float64 {
	txTokens := tokenize(txText)
	targetTokens := tokenize(target)
	if len(txTokens) == 0 || len(targetTokens) == 0 {
		return 0
	}

	var total float64
	for _, want := range targetTokens {
		best := 0.0
		for _, have := range txTokens {
			if sim := tokenSimilarity(want, have); sim > best {
				best = sim
			}
			if best == 1 {
				break
			}
		}
		total += best
	}
	return total / float64(len(targetTokens))
}

func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	similarity := 1 - float64(distance)/float64(longest)
	if similarity < 0 {
		return 0
	}
	return similarity
}

func tokenize(s string) []string {
	return strings.Fields(normalizeText(s))
}

// normalizeText uppercases and flattens punctuation so "ACME, Corp." and
// "acme corp" tokenize identically.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func transactionText(tx *models.BankTransaction) string {
	return strings.TrimSpace(tx.Description + " " + tx.Counterparty)
}

func daysApart(a, b time.Time) int {
	diff := dayStart(a).Sub(dayStart(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
