package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/banshee-data/anova.report/internal/anova"
	"github.com/banshee-data/anova.report/internal/dataset"
	"github.com/banshee-data/anova.report/internal/db"
	"github.com/banshee-data/anova.report/internal/httputil"
	"github.com/banshee-data/anova.report/internal/monitoring"
)

// Error kinds reported in the "kind" field of error responses.
const (
	KindEmptyInput         = "empty_input"
	KindMalformedRecord    = "malformed_record"
	KindInsufficientData   = "insufficient_data"
	KindDegenerateVariance = "degenerate_variance"
	KindNumericOverflow    = "numeric_overflow"
	KindNotFound           = "not_found"
	KindTooLarge           = "too_large"
	KindInternal           = "internal"
)

// errorBody maps a pipeline or storage error to its response.
func errorBody(err error) httputil.ErrorBody {
	var mre *anova.MalformedRecordError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &mre):
		body := httputil.ErrorBody{
			Error:  err.Error(),
			Kind:   KindMalformedRecord,
			Field:  mre.Field,
			Status: http.StatusBadRequest,
		}
		if mre.Index >= 0 {
			idx := mre.Index
			body.Index = &idx
		}
		return body
	case errors.Is(err, anova.ErrEmptyInput):
		return httputil.ErrorBody{Error: err.Error(), Kind: KindEmptyInput, Status: http.StatusBadRequest}
	case errors.As(err, &tooLarge):
		return httputil.ErrorBody{
			Error:  fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			Kind:   KindTooLarge,
			Status: http.StatusRequestEntityTooLarge,
		}
	case errors.Is(err, dataset.ErrTooManyRecords):
		return httputil.ErrorBody{Error: err.Error(), Kind: KindTooLarge, Status: http.StatusRequestEntityTooLarge}
	case errors.Is(err, anova.ErrInsufficientData):
		return httputil.ErrorBody{Error: err.Error(), Kind: KindInsufficientData, Status: http.StatusUnprocessableEntity}
	case errors.Is(err, anova.ErrDegenerateVariance):
		return httputil.ErrorBody{Error: err.Error(), Kind: KindDegenerateVariance, Status: http.StatusUnprocessableEntity}
	case errors.Is(err, anova.ErrNumericOverflow):
		return httputil.ErrorBody{Error: err.Error(), Kind: KindNumericOverflow, Status: http.StatusUnprocessableEntity}
	case errors.Is(err, db.ErrDatasetNotFound):
		return httputil.ErrorBody{Error: err.Error(), Kind: KindNotFound, Status: http.StatusNotFound}
	default:
		return httputil.ErrorBody{Error: "internal server error", Kind: KindInternal, Status: http.StatusInternalServerError}
	}
}

// writeError writes the mapped response for err. Unclassified errors are
// logged since their text is not returned to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody(err)
	if body.Status >= http.StatusInternalServerError {
		monitoring.Logf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	httputil.WriteErrorBody(w, body)
}
