// Package cli runs the pivot as a stdin-to-stdout filter.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/damon-houk/ratepivot/internal/domain/pivot"
	"github.com/damon-houk/ratepivot/internal/domain/service"
	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
	"github.com/damon-houk/ratepivot/internal/infrastructure/middleware"
)

// Runner reads one rate document and writes one price series document
type Runner struct {
	service service.Pivoter
	logger  logger.Logger
}

// NewRunner creates a new runner
func NewRunner(svc service.Pivoter, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Runner{service: svc, logger: log}
}

// Run validates bound before touching in, then pivots the document read from
// in and writes it to out. Nothing is written to out unless the whole
// transformation succeeded.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer, bound string) error {
	ctx = middleware.WithRequestID(ctx, "")
	runID := middleware.GetRequestID(ctx)

	if err := pivot.ValidateBound(bound); err != nil {
		return err
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	r.logger.Debug("Read rate document", map[string]interface{}{
		"request_id": runID,
		"bytes":      len(raw),
	})

	series, err := r.service.TransformDocument(ctx, raw, bound)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(series); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if _, err := out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}
