// Package classifier scores citizen-submitted disaster reports for
// authenticity. The model is a fixed weighted combination of text, image,
// location, and submitter-credibility signals; image quality and submitter
// credibility are simulated with bounded randomness standing in for computer
// vision and reputation data that are not available in this deployment.
package classifier

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/models"
)

// Feature weights. These must stay in lockstep with the scoring functions
// below; the final score is the weighted sum of the four component scores.
const (
	weightText     = 0.30
	weightImage    = 0.40
	weightLocation = 0.20
	weightUser     = 0.10
)

// Component defaults applied when the corresponding input is absent.
const (
	defaultTextScore     = 0.3
	defaultImageScore    = 0.4
	defaultLocationScore = 0.3
)

// authenticThreshold is the IsAuthentic cutoff on the final score. Note the
// risk-level bands below use their own 0.7 boundary, so a report can be
// authentic by this cutoff while still landing in the low_risk band.
const authenticThreshold = 0.6

var disasterKeywords = []string{
	"earthquake", "flood", "fire", "storm", "damage", "destroyed",
	"emergency", "help", "rescue", "trapped", "injured",
}

var fakeIndicators = []string{
	"fake", "hoax", "joke", "prank", "test", "drill", "exercise",
}

// Input is the subset of report fields the classifier reads.
// CredibilityHint, when set, is used as the submitter credibility score
// instead of the simulated band.
type Input struct {
	Description     string
	ImageRefs       []string
	Location        *models.Location
	CredibilityHint *float64
}

// Classifier scores reports. Safe for concurrent use; the random source is
// guarded because math/rand sources are not.
type Classifier struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.SugaredLogger
}

// New creates a classifier with a time-seeded random source.
func New(logger *zap.SugaredLogger) *Classifier {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()), logger)
}

// NewWithSource creates a classifier with the given random source so tests
// can pin the simulated image-quality and credibility draws.
func NewWithSource(src rand.Source, logger *zap.SugaredLogger) *Classifier {
	return &Classifier{rng: rand.New(src), logger: logger}
}

// Classify produces a Classification for the given report fields. Total over
// its input: missing description, images, or location degrade to the fixed
// component defaults rather than erroring.
func (c *Classifier) Classify(in Input) models.Classification {
	textScore := c.analyzeText(in.Description)
	imageScore := c.analyzeImages(in.ImageRefs)
	locationScore := c.analyzeLocation(in.Location)
	userScore := c.analyzeUser(in.CredibilityHint)

	finalScore := textScore*weightText +
		imageScore*weightImage +
		locationScore*weightLocation +
		userScore*weightUser

	result := models.Classification{
		TextScore:     textScore,
		ImageScore:    imageScore,
		LocationScore: locationScore,
		UserScore:     userScore,
		Confidence:    int(math.Round(finalScore * 100)),
		IsAuthentic:   finalScore > authenticThreshold,
		RiskLevel:     riskLevel(finalScore),
		Reasoning:     reasoning(textScore, imageScore, locationScore, finalScore),
	}

	if c.logger != nil {
		c.logger.Debugw("Report classified",
			"confidence", result.Confidence,
			"risk_level", result.RiskLevel,
			"is_authentic", result.IsAuthentic,
		)
	}

	return result
}

func (c *Classifier) analyzeText(description string) float64 {
	if description == "" {
		return defaultTextScore
	}

	text := strings.ToLower(description)
	score := 0.5

	for _, keyword := range disasterKeywords {
		if strings.Contains(text, keyword) {
			score += 0.1
		}
	}

	for _, indicator := range fakeIndicators {
		if strings.Contains(text, indicator) {
			score -= 0.3
		}
	}

	if len(text) > 50 {
		score += 0.1
	}
	if len(text) > 100 {
		score += 0.1
	}

	return clamp(score, 0, 1)
}

func (c *Classifier) analyzeImages(imageRefs []string) float64 {
	if len(imageRefs) == 0 {
		return defaultImageScore
	}

	score := 0.6
	if len(imageRefs) >= 2 {
		score += 0.2
	}
	if len(imageRefs) >= 3 {
		score += 0.1
	}

	// Simulated image-quality signal in [0, 0.2) standing in for computer
	// vision analysis of metadata and resolution.
	score += c.draw() * 0.2

	return math.Min(1, score)
}

func (c *Classifier) analyzeLocation(location *models.Location) float64 {
	if location == nil || location.Address == "" {
		return defaultLocationScore
	}

	score := 0.7
	if location.HasCoordinates() {
		score += 0.2
	}
	if len(location.Address) > 10 {
		score += 0.1
	}

	return math.Min(1, score)
}

func (c *Classifier) analyzeUser(hint *float64) float64 {
	if hint != nil {
		return clamp(*hint, 0, 1)
	}
	// Simulated credibility in [0.5, 0.8) standing in for submitter history
	// and verification status.
	return 0.5 + c.draw()*0.3
}

func riskLevel(score float64) string {
	switch {
	case score < 0.3:
		return models.RiskHighFake
	case score < 0.5:
		return models.RiskMedium
	case score < 0.7:
		return models.RiskLow
	default:
		return models.RiskAuthentic
	}
}

// reasoning builds the ordered human-readable explanation from per-component
// thresholds. Deterministic given the component scores.
func reasoning(textScore, imageScore, locationScore, finalScore float64) []string {
	reasons := make([]string, 0, 4)

	if textScore > 0.7 {
		reasons = append(reasons, "Strong disaster-related content in description")
	} else if textScore < 0.4 {
		reasons = append(reasons, "Weak or suspicious text content")
	}

	if imageScore > 0.7 {
		reasons = append(reasons, "Multiple high-quality images provided")
	} else if imageScore < 0.4 {
		reasons = append(reasons, "No images or poor quality images")
	}

	if locationScore > 0.7 {
		reasons = append(reasons, "Detailed location information provided")
	}

	if finalScore > 0.8 {
		reasons = append(reasons, "High confidence authentic report")
	} else if finalScore < 0.4 {
		reasons = append(reasons, "Multiple indicators suggest potential fake report")
	}

	return reasons
}

func (c *Classifier) draw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
