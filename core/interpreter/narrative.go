package interpreter

import (
	"fmt"
	"path/filepath"
	"strings"

	"exoml-server/core/models"
)

// plotCategories is the bucketing priority; the first matching substring wins
var plotCategories = []struct {
	category string
	needles  []string
}{
	{models.PlotConfusionMatrices, []string{"confusion"}},
	{models.PlotROCCurves, []string{"roc"}},
	{models.PlotFeatureImportance, []string{"topk", "feature"}},
}

// plotNouns gives the singular and plural noun for each category in summaries
var plotNouns = []struct {
	category         string
	singular, plural string
}{
	{models.PlotConfusionMatrices, "confusion matrix", "confusion matrices"},
	{models.PlotROCCurves, "ROC curve", "ROC curves"},
	{models.PlotFeatureImportance, "feature importance chart", "feature importance charts"},
	{models.PlotOther, "other plot", "other plots"},
}

// CategorizePlot buckets a plot file by its name. Only the part after the
// dataset tag is inspected, so a tag that happens to contain "roc" does not
// drag every plot into roc_curves.
func CategorizePlot(tag, path string) string {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimPrefix(name, strings.ToLower(tag))

	for _, c := range plotCategories {
		for _, needle := range c.needles {
			if strings.Contains(name, needle) {
				return c.category
			}
		}
	}
	return models.PlotOther
}

func emptyPlotBuckets() map[string][]string {
	return map[string][]string{
		models.PlotConfusionMatrices: {},
		models.PlotROCCurves:         {},
		models.PlotFeatureImportance: {},
		models.PlotOther:             {},
	}
}

// nextSteps builds the follow-up hints for a successful run. Order is fixed.
func nextSteps(results *models.Results, artifacts *models.Artifacts) []string {
	var steps []string

	if n := artifacts.Models.Count; n > 0 {
		steps = append(steps, fmt.Sprintf("%d trained %s ready for predictions at /api/predict", n, plural(n, "model", "models")))
	}

	if results.BestModel != nil {
		if accuracy, ok := results.Metrics["accuracy"]; ok {
			steps = append(steps, fmt.Sprintf("Best model: %s (accuracy %.2f%%)", *results.BestModel, accuracy))
		} else {
			steps = append(steps, fmt.Sprintf("Best model: %s", *results.BestModel))
		}
	}

	if n := artifacts.Plots.Count; n > 0 {
		var parts []string
		for _, noun := range plotNouns {
			if k := len(artifacts.Plots.ByType[noun.category]); k > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", k, plural(k, noun.singular, noun.plural)))
			}
		}
		steps = append(steps, fmt.Sprintf("%d %s generated: %s", n, plural(n, "plot", "plots"), strings.Join(parts, ", ")))
	}

	if path := artifacts.DataFiles.Metrics; path != nil {
		steps = append(steps, fmt.Sprintf("Detailed metrics saved to %s", *path))
	}

	if path := artifacts.DataFiles.TrainingColumns; path != nil {
		steps = append(steps, fmt.Sprintf("Training configuration ready for predictions: %s", *path))
	}

	if len(steps) == 0 {
		steps = append(steps, "Notebook executed successfully")
	}
	return steps
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
