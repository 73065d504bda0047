package entity

// Category tags a predictor with how the activator routes its output.
// Dispatch happens once, in the activator, on this tag — never on class or
// name strings inside business logic.
type Category int

const (
	// CategoryWord predictors contribute next-word candidates.
	CategoryWord Category = iota
	// CategorySentence predictors contribute full-sentence completions.
	CategorySentence
	// CategoryCanned predictors contribute pre-authored sentences plus an
	// optional secondary word output.
	CategoryCanned
	// CategorySpell predictors contribute corrections for the current token
	// and are only surfaced when no word predictor produced anything.
	CategorySpell
)

// Predictor is one strategy in the ensemble. Predict returns up to max
// suggestions for the current context; Learn absorbs one sentence of user
// text. Both report failures as errors — the activator aggregates them and
// treats a failing predictor as an empty contribution for that call.
type Predictor interface {
	Name() string
	Category() Category
	Predict(max int) (Prediction, error)
	Learn(sentence string) error
}

// WordContributor is implemented by sentence-class predictors that also
// produce a secondary next-word output during Predict.
type WordContributor interface {
	WordPrediction() Prediction
}
