package partialimport

import (
	"context"
	"fmt"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/section"
)

// ImportSection submits doc to the per-section import endpoint of sec. The
// collision policy travels as the legacy skip/overwrite flag pair.
func ImportSection(ctx context.Context, backend Backend, realm string, sec section.Section, doc map[string]any, policy Policy) (model.Notification, error) {
	if len(doc) == 0 {
		return model.Failure(ValidationMessage(ErrNothingToImport)), ErrNothingToImport
	}

	payload := deepCopy(doc).(map[string]any)
	payload["skip"] = policy.Skip()
	payload["overwrite"] = policy.Overwrite()

	if err := backend.ImportSection(ctx, realm, sec.ResourceName, payload); err != nil {
		metrics.ImportsTotal.WithLabelValues(string(policy), "error").Inc()
		return model.Failure(model.FailureMessage(err, FallbackMessage)), err
	}

	metrics.ImportsTotal.WithLabelValues(string(policy), "success").Inc()
	return model.Success(fmt.Sprintf("The %s have been imported.", sec.DisplayName)), nil
}
