package metrics

import (
	"fmt"
	"strings"

	"campaigndash/internal/models"
)

type Dimension string

const (
	ByCampaign Dimension = "campaign"
	ByPlatform Dimension = "platform"
)

// Group is one bar of a categorical chart.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// GroupBy folds samples per campaign or platform, keeping first-seen order.
func GroupBy(samples []models.MetricSample, dim Dimension, kind Kind) ([]Group, error) {
	var keyOf func(models.MetricSample) string
	switch dim {
	case ByCampaign:
		keyOf = func(s models.MetricSample) string { return orUnknown(s.Campaign, "Unknown Campaign") }
	case ByPlatform:
		keyOf = func(s models.MetricSample) string { return orUnknown(s.Platform, "Unknown Platform") }
	default:
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}

	index := make(map[string]int)
	var order []string
	var acc []accumulator
	for _, s := range samples {
		key := keyOf(s)
		i, ok := index[key]
		if !ok {
			i = len(order)
			index[key] = i
			order = append(order, key)
			acc = append(acc, accumulator{})
		}
		acc[i].add(s.MetricValue)
	}

	groups := make([]Group, len(order))
	for i, key := range order {
		groups[i] = Group{Key: key, Value: acc[i].value(kind)}
	}
	return groups, nil
}

// Total is the sum of group values, used for the share chart centre label.
func Total(groups []Group) float64 {
	var total float64
	for _, g := range groups {
		total += g.Value
	}
	return total
}

func orUnknown(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Stats holds the four summary card values for a month.
type Stats map[Kind]float64

// Summarize sums counts and averages rates; an empty series yields zero.
func Summarize(series map[Kind][]models.MetricSample) Stats {
	stats := make(Stats, len(Kinds))
	for _, k := range Kinds {
		var acc accumulator
		for _, s := range series[k] {
			acc.add(s.MetricValue)
		}
		stats[k] = acc.value(k)
	}
	return stats
}
