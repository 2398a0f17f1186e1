package interpreter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// modelMetrics is one model's entry in a metrics file
type modelMetrics struct {
	name   string
	values map[string]any
}

// trainingSummary is what the metrics file tells us about a run
type trainingSummary struct {
	modelsTrained []string
	bestModel     *string
	metrics       map[string]float64
}

var errNotObject = errors.New("not a JSON object")

// parseMetrics decodes a metrics file into model entries in file order.
// The models may sit directly at the top level or under a "results" key.
func parseMetrics(data []byte) ([]modelMetrics, error) {
	entries, err := orderedObject(data)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.key != "results" {
			continue
		}
		if nested, err := orderedObject(entry.value); err == nil {
			entries = nested
		}
		break
	}

	out := make([]modelMetrics, 0, len(entries))
	for _, entry := range entries {
		var values map[string]any
		if err := json.Unmarshal(entry.value, &values); err != nil || values == nil {
			// scalars and arrays are not model entries
			continue
		}
		out = append(out, modelMetrics{name: entry.key, values: values})
	}
	return out, nil
}

// summarize picks the best model by accuracy. Ties keep the earlier model.
func summarize(entries []modelMetrics) trainingSummary {
	summary := trainingSummary{
		modelsTrained: make([]string, 0, len(entries)),
		metrics:       map[string]float64{},
	}

	bestAccuracy := math.Inf(-1)
	for _, m := range entries {
		summary.modelsTrained = append(summary.modelsTrained, m.name)

		accuracy := m.number("accuracy")
		if summary.bestModel != nil && accuracy <= bestAccuracy {
			continue
		}
		name := m.name
		summary.bestModel = &name
		bestAccuracy = accuracy
		summary.metrics = m.percentages()
	}
	return summary
}

func (m modelMetrics) number(key string) float64 {
	v, _ := m.lookup(key)
	return v
}

func (m modelMetrics) lookup(key string) (float64, bool) {
	switch v := m.values[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func (m modelMetrics) percentages() map[string]float64 {
	f1, ok := m.lookup("f1_score")
	if !ok {
		f1 = m.number("f1")
	}
	out := map[string]float64{
		"accuracy":  percent(m.number("accuracy")),
		"precision": percent(m.number("precision")),
		"recall":    percent(m.number("recall")),
		"f1_score":  percent(f1),
	}
	if auc, ok := m.lookup("auc"); ok {
		out["auc"] = percent(auc)
	}
	return out
}

// percent converts a ratio to a percentage rounded to two decimals
func percent(ratio float64) float64 {
	return math.Round(ratio*100*100) / 100
}

type objectEntry struct {
	key   string
	value json.RawMessage
}

// orderedObject decodes a JSON object keeping key order, which encoding/json maps lose.
func orderedObject(data []byte) ([]objectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var entries []objectEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read metrics key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to read metrics for %s: %w", key, err)
		}
		entries = append(entries, objectEntry{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	return entries, nil
}
