package route2

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/restaurant-bff/core/internal/domain"
)

// stageError pairs a classified kind with the stage that raised it, the
// shape §7 requires for the {errorKind, errorStage} log field pair.
type stageError struct {
	Kind    domain.PipelineErrorKind
	Stage   string
	Message string
	cause   error
}

func (e *stageError) Error() string { return e.Message }
func (e *stageError) Unwrap() error { return e.cause }

// ErrorKind returns the classified PipelineErrorKind, satisfying
// ClassifiedError for callers outside this package (e.g. asyncrunner)
// that need the kind without depending on the unexported stageError type.
func (e *stageError) ErrorKind() domain.PipelineErrorKind { return e.Kind }

// ClassifiedError is implemented by every error this package returns
// from Orchestrator.Search, letting callers recover the classified kind
// via errors.As without a direct dependency on stageError's type.
type ClassifiedError interface {
	error
	ErrorKind() domain.PipelineErrorKind
}

func newStageError(stage string, kind domain.PipelineErrorKind, cause error) *stageError {
	msg := string(kind)
	if cause != nil {
		msg = cause.Error()
	}
	return &stageError{Kind: kind, Stage: stage, Message: msg, cause: cause}
}

// classifyPipelineError maps any error, deterministically, to exactly one
// PipelineErrorKind — the only kind surfaced to logs and WS error frames.
func classifyPipelineError(stage string, err error) *stageError {
	if err == nil {
		return nil
	}

	var se *stageError
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		if stage == stageGoogle {
			return newStageError(stage, domain.ErrGoogleTimeout, err)
		}
		if stage == stagePipeline {
			return newStageError(stage, domain.ErrPipelineTimeout, err)
		}
		return newStageError(stage, domain.ErrLLMTimeout, err)
	case errors.Is(err, context.Canceled):
		return newStageError(stage, domain.ErrPipelineTimeout, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newStageError(stage, domain.ErrDNSFail, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		return newStageError(stage, domain.ErrGoogleQuotaExceeded, err)
	case strings.Contains(msg, "api key") && strings.Contains(msg, "openai"):
		return newStageError(stage, domain.ErrOpenAIAPIKeyMissing, err)
	case strings.Contains(msg, "api key") && strings.Contains(msg, "google"):
		return newStageError(stage, domain.ErrGoogleAPIKeyMissing, err)
	case strings.Contains(msg, "schema validation"):
		return newStageError(stage, domain.ErrSchemaInvalid, err)
	case strings.Contains(msg, "invalid json") || strings.Contains(msg, "decode json"):
		return newStageError(stage, domain.ErrParse, err)
	case strings.Contains(msg, "validation"):
		return newStageError(stage, domain.ErrValidation, err)
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection"):
		return newStageError(stage, domain.ErrNetwork, err)
	}

	if stage == stageGoogle {
		return newStageError(stage, domain.ErrProvider, err)
	}
	return newStageError(stage, domain.ErrInternal, err)
}

const (
	stageGate          = "gate2"
	stageIntent        = "intent"
	stageBaseFilters   = "base_filters"
	stagePostConstr    = "post_constraints"
	stageRouteMapper   = "route_mapper"
	stageGoogle        = "google_maps"
	stagePostFilter    = "post_filter"
	stageResponse      = "response_build"
	stagePipeline      = "pipeline"
	stageNearMe        = "near_me"
)
