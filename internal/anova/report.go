package anova

// Verdict is the outcome of the homogeneity check.
type Verdict string

const (
	Pass Verdict = "PASS"
	Fail Verdict = "FAIL"
)

// SummaryTable holds the per-row and per-column aggregates of the grid.
type SummaryTable struct {
	SumOfRows         []float64 `json:"sum_of_rows"`
	SumOfColumns      []float64 `json:"sum_of_columns"`
	MeanOfRows        []float64 `json:"mean_of_rows"`
	MeanOfColumns     []float64 `json:"mean_of_columns"`
	VarianceOfRows    []float64 `json:"variance_of_rows"`
	VarianceOfColumns []float64 `json:"variance_of_columns"`
}

// Table is the two-way ANOVA decomposition and its F-tests.
type Table struct {
	GrandMean float64 `json:"grand_mean"`
	// Deviations[i][j] is cell (i, j) minus the mean of row i.
	Deviations [][]float64 `json:"deviations"`

	SSB float64 `json:"ssb"`
	SSC float64 `json:"ssc"`
	SSW float64 `json:"ssw"`
	SSE float64 `json:"sse"`

	DFRows    int `json:"degree_freedom_row"`
	DFColumns int `json:"degree_freedom_column"`
	DFWithin  int `json:"degree_freedom_within"`

	MSB float64 `json:"msb"`
	MSC float64 `json:"msc"`
	MSW float64 `json:"msw"`
	MSE float64 `json:"mse"`

	FRows         float64 `json:"f_rows"`
	FColumns      float64 `json:"f_columns"`
	PValueRows    float64 `json:"p_value_rows"`
	PValueColumns float64 `json:"p_value_columns"`
	FCritRows     float64 `json:"f_crit_rows"`
	FCritColumns  float64 `json:"f_crit_columns"`

	Significance    float64         `json:"significance"`
	FValue          float64         `json:"f_value"`
	FCriticalAt95   float64         `json:"f_critical_at_95"`
	HomogeneityDFD  int             `json:"homogeneity_dfd"`
	HomogeneityMode HomogeneityMode `json:"homogeneity_mode"`
	HomogeneityTest Verdict         `json:"homogeneity_test"`
}

// Report is the full output of Engine.Analyze.
type Report struct {
	Summary SummaryTable `json:"results_table"`
	ANOVA   Table        `json:"anova"`
}

// Result combines the outlier partition with the analysis of what remained.
type Result struct {
	*FilterResult
	*Report
}
