package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/infrastructure/queue"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/printer"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

// PrintDeduper claims a key once per ttl
type PrintDeduper interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// PrintJobProcessor turns print-kot jobs into kitchen tickets. A ticket is
// printed at most once per dedupe window, however often its job is delivered.
type PrintJobProcessor struct {
	printer   printer.Printer
	dedupe    PrintDeduper
	metrics   *metrics.Metrics
	charWidth int
	location  *time.Location
}

// NewPrintJobProcessor creates a new print job processor
func NewPrintJobProcessor(p printer.Printer, dedupe PrintDeduper, m *metrics.Metrics, charWidth int, loc *time.Location) *PrintJobProcessor {
	if loc == nil {
		loc = time.UTC
	}
	return &PrintJobProcessor{printer: p, dedupe: dedupe, metrics: m, charWidth: charWidth, location: loc}
}

func printKey(data *queue.PrintKOTData) string {
	return "print:kot:" + data.KOTID.String()
}

// Handle is a queue.Handler for queue.PrintKOTJob
func (p *PrintJobProcessor) Handle(ctx context.Context, job *queue.Job) error {
	ctx, span := tracing.Start(ctx, "PrintJobProcessor.Handle")
	defer span.End()

	var data queue.PrintKOTData
	if err := job.Decode(&data); err != nil {
		return fmt.Errorf("decode print job %s: %w", job.ID, err)
	}

	key := printKey(&data)
	acquired, err := p.dedupe.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("acquire %s: %w", key, err)
	}
	if !acquired {
		p.metrics.KOTPrintJob("duplicate")
		logger.Info(ctx).
			Str("job_id", job.ID).
			Str("kot_id", data.KOTID.String()).
			Msg("kot already printed, skipping")
		return nil
	}

	if err := p.printer.Print(ctx, FormatKOT(&data.Payload, p.charWidth, p.location)); err != nil {
		if relErr := p.dedupe.Release(ctx, key); relErr != nil {
			logger.Error(ctx).Err(relErr).Str("kot_id", data.KOTID.String()).Msg("release print key failed")
		}
		p.metrics.KOTPrintJob("failed")
		return fmt.Errorf("print kot %s: %w", data.KOTID, err)
	}

	p.metrics.KOTPrintJob("printed")
	logger.Info(ctx).
		Str("job_id", job.ID).
		Str("tenant_id", data.TenantID.String()).
		Str("kot_id", data.KOTID.String()).
		Int("attempt", job.Attempt).
		Msg("kot printed")
	return nil
}

// FormatKOT lays out a kitchen ticket as ESC/POS bytes
func FormatKOT(payload *entity.KOTPayload, width int, loc *time.Location) []byte {
	if loc == nil {
		loc = time.UTC
	}
	doc := printer.NewDocument(width)

	doc.Align(printer.AlignCenter).
		Bold(true).
		Size(printer.SizeDouble).
		Line("KITCHEN ORDER").
		Size(printer.SizeNormal).
		Bold(false).
		Align(printer.AlignLeft)

	table := "Takeaway"
	if payload.TableID != nil {
		table = shortID(payload.TableID.String())
	}
	doc.Pair("Table:", table).
		Pair("Order:", shortID(payload.OrderID.String())).
		Pair("Time:", payload.CreatedAt.In(loc).Format("2006-01-02 15:04"))

	doc.Rule('-')
	doc.Bold(true)
	for _, item := range payload.Items {
		doc.Qty(item.Qty, item.Name)
		if item.Notes != "" {
			doc.Bold(false).Line("  * " + item.Notes).Bold(true)
		}
	}
	doc.Bold(false)
	if payload.Notes != "" {
		doc.Rule('-').Line("Note: " + payload.Notes)
	}
	doc.Rule('-')

	doc.Feed(3).PartialCut()
	return doc.Bytes()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
