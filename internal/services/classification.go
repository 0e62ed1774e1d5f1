package services

import (
	"math/rand"
	"strings"
	"sync"

	"ecoverse/internal/pkg"

	"github.com/mroth/weightedrand/v2"
)

const (
	CATEGORY_RECYCLABLE_PLASTIC = "Recyclable-Plastic"
	CATEGORY_RECYCLABLE_PAPER   = "Recyclable-Paper"
	CATEGORY_ORGANIC_WASTE      = "Organic-Waste"
	CATEGORY_E_WASTE            = "E-Waste"
	CATEGORY_LANDFILL_WASTE     = "Landfill-Waste"
)

var categoryPoints = map[string]int{
	CATEGORY_RECYCLABLE_PLASTIC: 15,
	CATEGORY_RECYCLABLE_PAPER:   10,
	CATEGORY_ORGANIC_WASTE:      5,
	CATEGORY_E_WASTE:            25,
	CATEGORY_LANDFILL_WASTE:     1,
}

func Categories() []string {
	return []string{
		CATEGORY_RECYCLABLE_PLASTIC,
		CATEGORY_RECYCLABLE_PAPER,
		CATEGORY_ORGANIC_WASTE,
		CATEGORY_E_WASTE,
		CATEGORY_LANDFILL_WASTE,
	}
}

// NormalizeCategory maps labels such as "Recyclable (Plastic)" or
// "organic waste" to the canonical category name. Unrecognized labels are
// returned trimmed and unchanged.
func NormalizeCategory(label string) string {
	label = strings.TrimSpace(label)
	key := strings.NewReplacer("(", " ", ")", " ", "-", " ", "_", " ").Replace(strings.ToLower(label))
	key = strings.Join(strings.Fields(key), " ")

	for _, category := range Categories() {
		if strings.ToLower(strings.ReplaceAll(category, "-", " ")) == key {
			return category
		}
	}
	return label
}

// PointsForCategory never fails: an unknown category earns 0.
func PointsForCategory(category string) int {
	return categoryPoints[NormalizeCategory(category)]
}

type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type Classifier interface {
	Classify() Classification
}

// SimulatedClassifier picks a category at random with a confidence in
// [0.75, 0.95]. It stands in for an image model.
type SimulatedClassifier struct {
	chooser *weightedrand.Chooser[string, int]
	mu      sync.Mutex
	rng     *rand.Rand
}

func NewSimulatedClassifier(rng *rand.Rand) (*SimulatedClassifier, error) {
	choices := make([]weightedrand.Choice[string, int], 0, len(categoryPoints))
	for _, category := range Categories() {
		choices = append(choices, weightedrand.NewChoice(category, 1))
	}

	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, err
	}

	return &SimulatedClassifier{chooser: chooser, rng: rng}, nil
}

func (c *SimulatedClassifier) Classify() Classification {
	c.mu.Lock()
	spread := SIMULATED_CLASSIFIER_MAX_CONFIDENCE - SIMULATED_CLASSIFIER_MIN_CONFIDENCE
	confidence := SIMULATED_CLASSIFIER_MIN_CONFIDENCE + c.rng.Float64()*spread
	c.mu.Unlock()

	return Classification{
		Category:   c.chooser.Pick(),
		Confidence: pkg.Round(confidence, 2),
	}
}
