package query

import "strings"

// intentRule is one ordered classification rule: the first rule whose
// phrase/keyword matches wins, so rule order below is significant and must
// not be reshuffled.
type intentRule struct {
	intent   Intent
	weight   float64
	phrases  []string // matched as substrings of the normalized text
	keywords []string // matched as whole tokens
}

// intentRules in precedence order. "how to improve focus" must classify as
// howto even though "improve" alone would fall through to information.
var intentRules = []intentRule{
	{
		intent:  IntentHowTo,
		weight:  0.5,
		phrases: []string{"how to", "how do i", "how can i", "ways to", "best way"},
	},
	{
		intent: IntentSymptom,
		weight: 0.4,
		keywords: []string{
			"symptom", "symptoms", "pain", "fatigue", "insomnia", "headache",
			"tired", "nausea", "dizzy", "bloating", "brain fog", "soreness",
		},
		phrases: []string{"why do i", "why am i", "what causes"},
	},
	{
		intent: IntentProtocol,
		weight: 0.4,
		keywords: []string{
			"protocol", "protocols", "routine", "regimen", "dosage", "dose",
			"stack", "plan", "schedule",
		},
	},
}

// termConfidenceWeight is the per-extracted-term confidence contribution.
const termConfidenceWeight = 0.05

// ClassifyIntent applies the ordered rule set to the normalized text.
// Confidence is the matched rule's weight plus a contribution proportional
// to the extracted term count, capped at 1.0.
func ClassifyIntent(normalized string, terms []string) (Intent, float64) {
	intent := IntentInformation
	weight := 0.2

	padded := " " + normalized + " "
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = true
	}

rules:
	for _, rule := range intentRules {
		for _, p := range rule.phrases {
			if strings.Contains(padded, " "+p+" ") || strings.HasPrefix(normalized, p) {
				intent = rule.intent
				weight = rule.weight
				break rules
			}
		}
		for _, k := range rule.keywords {
			if strings.Contains(k, " ") {
				if strings.Contains(padded, " "+k+" ") {
					intent = rule.intent
					weight = rule.weight
					break rules
				}
				continue
			}
			if tokens[k] {
				intent = rule.intent
				weight = rule.weight
				break rules
			}
		}
	}

	confidence := weight + termConfidenceWeight*float64(len(terms))
	if confidence > 1.0 {
		confidence = 1.0
	}
	return intent, confidence
}
