package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/audit"
	"civic-watch/incident-reports-backend/internal/config"
	"civic-watch/incident-reports-backend/internal/delivery"
	"civic-watch/incident-reports-backend/internal/incidents"
	"civic-watch/incident-reports-backend/internal/narrative"
	"civic-watch/incident-reports-backend/internal/settings"
	"civic-watch/incident-reports-backend/internal/stats"
	"civic-watch/incident-reports-backend/internal/templates"
)

// Stage prefixes used on GeneratedReport.LastError. A stage's next success
// clears only its own error, so an older failure from a different stage stays
// visible.
const (
	stageNarrative = "narrative"
	stageDocument  = "document"
	stageDelivery  = "delivery"
)

// ErrNoDocument is returned by Resend when the report has no stored document.
var ErrNoDocument = errors.New("report has no generated document")

// ErrNoMarkdown is returned by RegenerateDocument when the report never made
// it past rendering.
var ErrNoMarkdown = errors.New("report has no rendered markdown")

// SettingsStore is the configuration snapshot source for pipeline runs.
type SettingsStore interface {
	GetScheduleConfig(ctx context.Context) (*settings.ScheduleConfig, error)
	GetAiProviderConfig(ctx context.Context) (*settings.AiProviderConfig, error)
	GetEmailProviderConfig(ctx context.Context) (*settings.EmailProviderConfig, error)
}

// DocumentRenderer persists report artifacts.
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, markdown string, periodStart, periodEnd time.Time) (string, error)
	RenderWorkbook(ctx context.Context, st stats.ReportStatistics, periodStart, periodEnd time.Time) (string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// GeneratorFactory builds a narrative generator from a configuration
// snapshot. Injectable so tests can substitute a stub provider.
type GeneratorFactory func(cfg settings.AiProviderConfig) (narrative.Generator, error)

// SenderFactory builds a delivery sender from a configuration snapshot.
type SenderFactory func(cfg settings.EmailProviderConfig) (delivery.Sender, error)

// Orchestrator composes the pipeline stages into single runs and owns the
// GeneratedReport lifecycle.
type Orchestrator struct {
	reports      Repository
	source       incidents.Source
	templates    templates.Repository
	settings     SettingsStore
	renderer     DocumentRenderer
	newGenerator GeneratorFactory
	newSender    SenderFactory
	audit        audit.Sink
	logger       *zap.Logger

	narrativeTimeout time.Duration
	deliveryTimeout  time.Duration
}

// NewOrchestrator creates a new pipeline orchestrator
func NewOrchestrator(
	reports Repository,
	source incidents.Source,
	templateRepo templates.Repository,
	settingsStore SettingsStore,
	renderer DocumentRenderer,
	auditSink audit.Sink,
	pipelineCfg config.PipelineConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		reports:          reports,
		source:           source,
		templates:        templateRepo,
		settings:         settingsStore,
		renderer:         renderer,
		newGenerator:     narrative.NewGenerator,
		newSender:        delivery.NewSender,
		audit:            auditSink,
		logger:           logger,
		narrativeTimeout: pipelineCfg.NarrativeTimeout(),
		deliveryTimeout:  pipelineCfg.DeliveryTimeout(),
	}
}

// WithGeneratorFactory overrides the narrative provider construction.
func (o *Orchestrator) WithGeneratorFactory(f GeneratorFactory) *Orchestrator {
	o.newGenerator = f
	return o
}

// WithSenderFactory overrides the delivery sender construction.
func (o *Orchestrator) WithSenderFactory(f SenderFactory) *Orchestrator {
	o.newSender = f
	return o
}

// Generate runs the full pipeline once for the half-open period
// [periodStart, periodEnd). Aggregation failure is the only fatal outcome;
// narrative, document, and delivery failures degrade the run but still
// persist a reviewable report. If sendImmediately is false the run stops
// after document generation.
func (o *Orchestrator) Generate(ctx context.Context, actor string, periodStart, periodEnd time.Time, templateID *uuid.UUID, sendImmediately bool) (*GeneratedReport, error) {
	body, err := o.resolveTemplateBody(ctx, templateID)
	if err != nil {
		return nil, err
	}

	o.audit.LogEvent(ctx, audit.Event{
		Code:   audit.CodeRunStarted,
		Detail: fmt.Sprintf("period %s to %s", periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02")),
		Actor:  actor,
	})

	records, err := o.source.FetchIncidents(ctx, periodStart, periodEnd)
	if err != nil {
		o.logger.Error("Aggregation stage failed, aborting run",
			zap.Time("period_start", periodStart),
			zap.Error(err))
		o.auditRunFailed(ctx, actor, err)
		return nil, fmt.Errorf("failed to fetch incident records: %w", err)
	}

	st := stats.Aggregate(records, periodStart, periodEnd)

	report := &GeneratedReport{
		ID:          uuid.New(),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		TemplateID:  templateID,
		CreatedAt:   time.Now(),
	}
	if err := report.SetStatistics(st); err != nil {
		o.auditRunFailed(ctx, actor, err)
		return nil, fmt.Errorf("failed to serialize statistics: %w", err)
	}
	if err := o.reports.Create(ctx, report); err != nil {
		o.auditRunFailed(ctx, actor, err)
		return nil, err
	}

	narrativeText := o.runNarrativeStage(ctx, report, st, periodStart, periodEnd, records)

	report.NarrativeMarkdown = templates.Render(body, buildBindings(st, periodStart, periodEnd, narrativeText))
	if err := o.reports.Update(ctx, report); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return report, nil
	}

	o.runDocumentStage(ctx, report, st, periodStart, periodEnd)
	if err := o.reports.Update(ctx, report); err != nil {
		return nil, err
	}

	if sendImmediately && ctx.Err() == nil {
		o.runDeliveryStage(ctx, report, nil, actor)
		if err := o.reports.Update(ctx, report); err != nil {
			return nil, err
		}
	}

	o.finishRun(ctx, report, actor)
	return report, nil
}

// RegenerateDocument re-renders the binary document strictly from the stored
// markdown. Statistics and narrative are never recomputed here.
func (o *Orchestrator) RegenerateDocument(ctx context.Context, reportID uuid.UUID) (string, error) {
	report, err := o.reports.GetByID(ctx, reportID)
	if err != nil {
		return "", err
	}
	if report.NarrativeMarkdown == "" {
		return "", ErrNoMarkdown
	}

	location, err := o.renderer.RenderPDF(ctx, report.NarrativeMarkdown, report.PeriodStart, report.PeriodEnd)
	if err != nil {
		o.setStageError(report, stageDocument, err)
		if updateErr := o.reports.Update(ctx, report); updateErr != nil {
			return "", updateErr
		}
		return "", fmt.Errorf("failed to regenerate document: %w", err)
	}

	report.DocumentPath = &location
	o.clearStageError(report, stageDocument)
	if err := o.reports.Update(ctx, report); err != nil {
		return "", err
	}

	o.logger.Info("Report document regenerated",
		zap.String("report_id", reportID.String()),
		zap.String("document_path", location))
	return location, nil
}

// Resend re-invokes delivery only, using the stored document. Recipients
// default to the schedule configuration unless overridden.
func (o *Orchestrator) Resend(ctx context.Context, reportID uuid.UUID, overrideRecipients []string, actor string) error {
	report, err := o.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report.DocumentPath == nil {
		return ErrNoDocument
	}

	o.runDeliveryStage(ctx, report, overrideRecipients, actor)
	if err := o.reports.Update(ctx, report); err != nil {
		return err
	}

	if !report.Sent {
		if report.LastError != nil {
			return errors.New(*report.LastError)
		}
		return errors.New("delivery failed")
	}
	return nil
}

// ListReports returns reports matching the filter, newest period first.
func (o *Orchestrator) ListReports(ctx context.Context, filter ListFilter) ([]GeneratedReport, error) {
	return o.reports.List(ctx, filter)
}

// DeleteReport removes a report. A missing id returns false, not an error.
func (o *Orchestrator) DeleteReport(ctx context.Context, reportID uuid.UUID) (bool, error) {
	return o.reports.Delete(ctx, reportID)
}

// GetReport loads one report by id.
func (o *Orchestrator) GetReport(ctx context.Context, reportID uuid.UUID) (*GeneratedReport, error) {
	return o.reports.GetByID(ctx, reportID)
}

func (o *Orchestrator) resolveTemplateBody(ctx context.Context, templateID *uuid.UUID) (string, error) {
	if templateID != nil {
		tpl, err := o.templates.GetByID(ctx, *templateID)
		if err != nil {
			return "", err
		}
		return tpl.BodyMarkdown, nil
	}

	tpl, err := o.templates.GetDefault(ctx)
	if errors.Is(err, templates.ErrNotFound) {
		return templates.DefaultBody, nil
	}
	if err != nil {
		return "", err
	}
	return tpl.BodyMarkdown, nil
}

// runNarrativeStage produces the AI summary, substituting the fixed fallback
// text when generation fails. Never fatal.
func (o *Orchestrator) runNarrativeStage(ctx context.Context, report *GeneratedReport, st stats.ReportStatistics, periodStart, periodEnd time.Time, records []incidents.Record) string {
	aiCfg, err := o.settings.GetAiProviderConfig(ctx)
	if err != nil {
		o.degrade(report, stageNarrative, err)
		return narrative.FallbackText
	}

	generator, err := o.newGenerator(*aiCfg)
	if err != nil {
		o.degrade(report, stageNarrative, err)
		return narrative.FallbackText
	}

	narrativeCtx, cancel := context.WithTimeout(ctx, o.narrativeTimeout)
	defer cancel()

	text, err := generator.Generate(narrativeCtx, narrative.Request{
		Statistics:    st,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		IncidentLines: incidentLines(records, aiCfg.MaxRecordsForNarrative),
	})
	if err != nil {
		o.degrade(report, stageNarrative, err)
		return narrative.FallbackText
	}

	o.clearStageError(report, stageNarrative)
	return text
}

// runDocumentStage persists the PDF and the companion workbook. Never fatal.
func (o *Orchestrator) runDocumentStage(ctx context.Context, report *GeneratedReport, st stats.ReportStatistics, periodStart, periodEnd time.Time) {
	location, err := o.renderer.RenderPDF(ctx, report.NarrativeMarkdown, periodStart, periodEnd)
	if err != nil {
		o.degrade(report, stageDocument, err)
		return
	}
	report.DocumentPath = &location
	o.clearStageError(report, stageDocument)

	workbook, err := o.renderer.RenderWorkbook(ctx, st, periodStart, periodEnd)
	if err != nil {
		// The PDF is the primary artifact; a missing workbook only degrades.
		o.degrade(report, stageDocument, err)
		return
	}
	report.WorkbookPath = &workbook
}

// runDeliveryStage makes a single send attempt. Never fatal; outcome lands on
// Sent/SentAt/LastError.
func (o *Orchestrator) runDeliveryStage(ctx context.Context, report *GeneratedReport, overrideRecipients []string, actor string) {
	if report.DocumentPath == nil {
		o.degrade(report, stageDelivery, errors.New("no document to deliver"))
		return
	}

	emailCfg, err := o.settings.GetEmailProviderConfig(ctx)
	if err != nil {
		o.degrade(report, stageDelivery, err)
		return
	}
	if !emailCfg.Enabled {
		o.degrade(report, stageDelivery, errors.New("email delivery is disabled"))
		return
	}

	recipients := overrideRecipients
	if len(recipients) == 0 {
		scheduleCfg, err := o.settings.GetScheduleConfig(ctx)
		if err != nil {
			o.degrade(report, stageDelivery, err)
			return
		}
		recipients = scheduleCfg.Recipients
	}
	if len(recipients) == 0 {
		o.degrade(report, stageDelivery, errors.New("no recipients configured"))
		return
	}

	sender, err := o.newSender(*emailCfg)
	if err != nil {
		o.degrade(report, stageDelivery, err)
		return
	}

	documentName := filepath.Base(*report.DocumentPath)
	data, err := o.renderer.Fetch(ctx, documentName)
	if err != nil {
		o.degrade(report, stageDelivery, err)
		return
	}

	attachments := []delivery.Attachment{
		{Name: documentName, Data: data, ContentType: "application/pdf"},
	}
	if report.WorkbookPath != nil {
		workbookName := filepath.Base(*report.WorkbookPath)
		workbookData, err := o.renderer.Fetch(ctx, workbookName)
		if err != nil {
			// The workbook is a companion; the report still goes out.
			o.logger.Warn("Failed to load workbook attachment",
				zap.String("report_id", report.ID.String()),
				zap.Error(err))
		} else {
			attachments = append(attachments, delivery.Attachment{
				Name:        workbookName,
				Data:        workbookData,
				ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			})
		}
	}

	deliveryCtx, cancel := context.WithTimeout(ctx, o.deliveryTimeout)
	defer cancel()

	err = sender.Send(deliveryCtx, delivery.Message{
		Recipients: recipients,
		Subject: fmt.Sprintf("Reporte de incidentes %s a %s",
			report.PeriodStart.Format("2006-01-02"), report.PeriodEnd.Format("2006-01-02")),
		Body:        "Se adjunta el reporte de incidentes del periodo.",
		Attachments: attachments,
	})
	if err != nil {
		o.degrade(report, stageDelivery, err)
		o.audit.LogEvent(ctx, audit.Event{
			Code:         audit.CodeSendFailed,
			RelatedID:    &report.ID,
			RelatedTable: report.TableName(),
			Detail:       err.Error(),
			Actor:        actor,
		})
		return
	}

	now := time.Now()
	report.Sent = true
	report.SentAt = &now
	o.clearStageError(report, stageDelivery)

	o.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeSent,
		RelatedID:    &report.ID,
		RelatedTable: report.TableName(),
		Detail:       fmt.Sprintf("%d recipients", len(recipients)),
		Actor:        actor,
	})
}

// auditRunFailed closes the audit trail of a fatally aborted run, so every
// run-started event has a terminal counterpart.
func (o *Orchestrator) auditRunFailed(ctx context.Context, actor string, err error) {
	o.audit.LogEvent(ctx, audit.Event{
		Code:   audit.CodeRunFailed,
		Detail: err.Error(),
		Actor:  actor,
	})
}

func (o *Orchestrator) finishRun(ctx context.Context, report *GeneratedReport, actor string) {
	code := audit.CodeRunCompleted
	if report.LastError != nil {
		code = audit.CodeRunFailedPartial
	}

	detail := ""
	if report.LastError != nil {
		detail = *report.LastError
	}
	o.audit.LogEvent(ctx, audit.Event{
		Code:         code,
		RelatedID:    &report.ID,
		RelatedTable: report.TableName(),
		Detail:       detail,
		Actor:        actor,
	})

	o.logger.Info("Pipeline run finished",
		zap.String("report_id", report.ID.String()),
		zap.Bool("sent", report.Sent),
		zap.Bool("degraded", report.LastError != nil))
}

func (o *Orchestrator) degrade(report *GeneratedReport, stage string, err error) {
	o.setStageError(report, stage, err)
	o.logger.Warn("Pipeline stage degraded",
		zap.String("report_id", report.ID.String()),
		zap.String("stage", stage),
		zap.Error(err))
}

func (o *Orchestrator) setStageError(report *GeneratedReport, stage string, err error) {
	msg := fmt.Sprintf("%s: %v", stage, err)
	report.LastError = &msg
}

// clearStageError clears LastError only when it was recorded by the given
// stage.
func (o *Orchestrator) clearStageError(report *GeneratedReport, stage string) {
	if report.LastError != nil && strings.HasPrefix(*report.LastError, stage+":") {
		report.LastError = nil
	}
}

// buildBindings maps every recognized placeholder to its value for one run.
func buildBindings(st stats.ReportStatistics, periodStart, periodEnd time.Time, narrativeText string) map[string]string {
	return map[string]string{
		templates.PlaceholderPeriodStart: periodStart.Format("2006-01-02"),
		templates.PlaceholderPeriodEnd:   periodEnd.Format("2006-01-02"),
		templates.PlaceholderTotal:       strconv.Itoa(st.TotalCount),
		templates.PlaceholderCrimeTable:  countTable("Tipo de delito", st.ByCrimeType),
		templates.PlaceholderZoneTable:   countTable("Zona", st.ByZone),
		templates.PlaceholderAgeTable:    countTable("Rango de edad", st.ByAgeBucket),
		templates.PlaceholderNarrative:   narrativeText,
	}
}

// countTable renders a two-column markdown table with rows in sorted key
// order so the output is deterministic.
func countTable(header string, counts map[string]int) string {
	if len(counts) == 0 {
		return "Sin datos para este periodo."
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "| %s | Reportes |\n", header)
	b.WriteString("| --- | --- |\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "| %s | %d |\n", k, counts[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// incidentLines formats at most limit records as detail lines for the
// narrative prompt. A zero limit disables record detail entirely.
func incidentLines(records []incidents.Record, limit int) []string {
	if limit <= 0 || len(records) == 0 {
		return nil
	}
	if len(records) > limit {
		records = records[:limit]
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s: %s en %s, víctima de %d años",
			r.OccurredAt.Format("2006-01-02"), r.CrimeType, r.Zone, r.VictimAge))
	}
	return lines
}
