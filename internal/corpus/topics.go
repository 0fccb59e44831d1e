package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// topicFile is the YAML shape of an optional topics.yaml in the base dir.
type topicFile struct {
	Topics []topicEntry `yaml:"topics"`
}

type topicEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// DefaultTopics is the built-in health topic catalog. A topics.yaml in the
// base dir extends or overrides these by name.
func DefaultTopics() []Topic {
	return []Topic{
		{
			Name:        "sleep",
			Description: "Sleep quality, circadian rhythm, and recovery",
			Keywords: []string{
				"sleep", "insomnia", "circadian", "melatonin", "rem",
				"deep sleep", "sleep quality", "naps", "jet lag", "caffeine",
			},
		},
		{
			Name:        "nutrition",
			Description: "Diet, macronutrients, and metabolic health",
			Keywords: []string{
				"nutrition", "diet", "protein", "fasting", "sugar",
				"metabolism", "gut health", "fiber", "omega 3", "micronutrients",
			},
		},
		{
			Name:        "exercise",
			Description: "Training, strength, endurance, and recovery",
			Keywords: []string{
				"exercise", "training", "strength", "cardio", "endurance",
				"zone 2", "vo2 max", "resistance training", "recovery", "mobility",
			},
		},
		{
			Name:        "stress",
			Description: "Stress physiology and regulation tools",
			Keywords: []string{
				"stress", "cortisol", "anxiety", "breathing", "breathwork",
				"meditation", "cold exposure", "vagus nerve", "relaxation",
			},
		},
		{
			Name:        "focus",
			Description: "Attention, motivation, and cognitive performance",
			Keywords: []string{
				"focus", "attention", "dopamine", "motivation", "productivity",
				"adhd", "concentration", "flow state", "distraction",
			},
		},
		{
			Name:        "hormones",
			Description: "Hormone function and optimization",
			Keywords: []string{
				"hormones", "testosterone", "estrogen", "thyroid", "insulin",
				"growth hormone", "cortisol", "fertility",
			},
		},
		{
			Name:        "longevity",
			Description: "Healthspan, aging, and longevity interventions",
			Keywords: []string{
				"longevity", "aging", "healthspan", "autophagy", "nad",
				"rapamycin", "metformin", "senescence", "lifespan",
			},
		},
		{
			Name:        "supplements",
			Description: "Supplement protocols and evidence",
			Keywords: []string{
				"supplements", "creatine", "magnesium", "vitamin d", "omega 3",
				"ashwagandha", "zinc", "electrolytes", "dosage",
			},
		},
	}
}

// LoadTopics returns the built-in catalog merged with baseDir/topics.yaml
// when that file exists. File entries win on name collision.
func LoadTopics(baseDir string) ([]Topic, error) {
	topics := DefaultTopics()

	path := filepath.Join(baseDir, "topics.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return topics, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file topicFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	byName := make(map[string]int, len(topics))
	for i, t := range topics {
		byName[Normalize(t.Name)] = i
	}

	for _, entry := range file.Topics {
		name := Normalize(entry.Name)
		if name == "" {
			continue
		}
		t := Topic{
			Name:        name,
			Description: entry.Description,
			Keywords:    normalizeKeywords(entry.Keywords),
		}
		if i, ok := byName[name]; ok {
			topics[i] = t
		} else {
			byName[name] = len(topics)
			topics = append(topics, t)
		}
	}

	return topics, nil
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = Normalize(k)
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
