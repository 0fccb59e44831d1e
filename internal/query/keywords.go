package query

// domainKeywords is the static health-domain keyword table. The term index
// unions these with every topic's keyword list at startup.
var domainKeywords = []string{
	// general
	"health", "wellness", "energy", "immune system", "inflammation",
	"blood pressure", "cholesterol", "blood sugar", "heart rate",
	"body composition", "weight loss", "muscle", "fat loss",

	// sleep
	"sleep", "sleep quality", "deep sleep", "rem sleep", "circadian rhythm",
	"melatonin", "insomnia", "naps", "wake up", "morning light",

	// nutrition
	"nutrition", "diet", "protein", "carbohydrates", "fats", "fiber",
	"fasting", "intermittent fasting", "gut health", "microbiome",
	"hydration", "caffeine", "alcohol", "sugar", "processed food",

	// training
	"exercise", "workout", "strength training", "resistance training",
	"cardio", "zone 2", "vo2 max", "endurance", "flexibility", "mobility",
	"recovery", "stretching", "walking", "running",

	// mind
	"focus", "attention", "memory", "learning", "motivation", "dopamine",
	"stress", "anxiety", "depression", "meditation", "breathing",
	"breathwork", "mindfulness", "brain fog", "mental health",

	// interventions
	"supplements", "creatine", "magnesium", "vitamin d", "omega 3",
	"electrolytes", "cold exposure", "cold plunge", "sauna", "heat exposure",
	"sunlight", "grounding",

	// hormones & longevity
	"hormones", "testosterone", "estrogen", "cortisol", "insulin",
	"thyroid", "longevity", "aging", "healthspan", "autophagy",
}
