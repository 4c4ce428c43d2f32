package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrFault         = errors.New("unhandled fault")
)

// Failure kinds reported by Classify. They appear in logs as error_kind.
const (
	KindStageProcessFailed        = "stage_process_failed"
	KindPipelineInvariantViolated = "pipeline_invariant_violated"
	KindUnhandledFault            = "unhandled_fault"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFault
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a pipeline error to its failure kind.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrExternalTool), errors.Is(err, ErrTimeout):
		return KindStageProcessFailed
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return KindPipelineInvariantViolated
	default:
		return KindUnhandledFault
	}
}

// Detail returns the human message carried by a wrapped error without the
// marker prefix and stage context.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var detailed *detailError
	if errors.As(err, &detailed) {
		return detailed.message
	}
	return err.Error()
}

// Invariant wraps a validation failure whose message is shown verbatim to
// callers polling the job.
func Invariant(stage, message string) error {
	return Wrap(ErrValidation, stage, "", "", &detailError{message: message})
}

type detailError struct {
	message string
}

func (e *detailError) Error() string { return e.message }

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
