package models

// MetricSample is one aggregated data point returned by the insights API.
// Exactly which of Date, Campaign and Platform is populated depends on the query.
type MetricSample struct {
	Date        string  `json:"date,omitempty"`
	Campaign    string  `json:"campaign,omitempty"`
	Platform    string  `json:"platform,omitempty"`
	MetricValue float64 `json:"metric_value"`
}

// CampaignRow is one line of the all-time campaign table.
type CampaignRow struct {
	Campaign    string  `json:"campaign"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CPC         float64 `json:"cpc"`
	CTR         float64 `json:"ctr"`
}
