package report

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/audit"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/report"
	"github.com/investorcrm/backend/internal/infrastructure/storage"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Export formats
const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

const (
	pageSize           = 500
	unassignedOwner    = "Unassigned"
	mixedCurrencies    = "mixed currencies"
	defaultDownloadTTL = 15 * time.Minute
	auditEntityType    = "pipeline_report"
)

// AuditRecorder writes audit entries
type AuditRecorder interface {
	Record(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, action audit.Action, entityType string, entityID uuid.UUID, changes map[string]any) error
}

// ExportResponse points at a rendered report
type ExportResponse struct {
	ID          uuid.UUID `json:"id"`
	Format      string    `json:"format"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
	SizeBytes   int       `json:"size_bytes"`
	Investors   int       `json:"investors"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Config holds export settings
type Config struct {
	DownloadTTL   time.Duration
	RenderTimeout time.Duration
}

// ReportService renders pipeline exports and stores them for download
type ReportService struct {
	investors investor.InvestorRepository
	users     identity.UserRepository
	tenants   identity.TenantRepository
	renderer  report.PDFRenderer
	objects   storage.ObjectStorage
	audit     AuditRecorder
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService creates a new ReportService. renderer may be nil, in which case only HTML exports work.
func NewReportService(
	investors investor.InvestorRepository,
	users identity.UserRepository,
	tenants identity.TenantRepository,
	renderer report.PDFRenderer,
	objects storage.ObjectStorage,
	auditRecorder AuditRecorder,
	cfg Config,
	logger *zap.Logger,
) *ReportService {
	if cfg.DownloadTTL <= 0 {
		cfg.DownloadTTL = defaultDownloadTTL
	}
	return &ReportService{
		investors: investors,
		users:     users,
		tenants:   tenants,
		renderer:  renderer,
		objects:   objects,
		audit:     auditRecorder,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// ExportPipeline renders the tenant's live pipeline grouped by stage, stores it and returns a
// time-limited download URL.
func (s *ReportService) ExportPipeline(ctx context.Context, tenantID, userID uuid.UUID, format string) (resp *ExportResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ReportService", "ExportPipeline",
		telemetry.AttrTenantID, tenantID.String(),
		"crm.report.format", format,
	)
	defer telemetry.End(span, &err)

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatHTML {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Format must be pdf or html")
	}
	if format == FormatPDF && s.renderer == nil {
		return nil, shared.ErrIntegrationDisabled
	}

	model, err := s.BuildPipeline(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	html, err := report.RenderPipelineHTML(model)
	if err != nil {
		return nil, err
	}

	data, contentType := html, "text/html; charset=utf-8"
	if format == FormatPDF {
		result, err := s.renderer.Render(ctx, &report.RenderRequest{
			HTML:      string(html),
			Title:     model.Title,
			Landscape: true,
			Timeout:   s.cfg.RenderTimeout,
		})
		if err != nil {
			return nil, shared.WrapDomainError("RENDER_FAILED", "Failed to render the report", err)
		}
		data, contentType = result.PDFData, "application/pdf"
		s.logger.Debug("Pipeline report rendered",
			zap.String("tenant_id", tenantID.String()),
			zap.Duration("elapsed", result.RenderDuration),
			zap.Int("bytes", len(data)))
	}

	key := storage.ReportKey(tenantID, model.GeneratedAt, format)
	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		return nil, shared.WrapDomainError("STORAGE_ERROR", "Failed to store the report", err)
	}
	url, err := s.objects.PresignGet(ctx, key, s.cfg.DownloadTTL)
	if err != nil {
		return nil, shared.WrapDomainError("STORAGE_ERROR", "Failed to create a download link", err)
	}

	resp = &ExportResponse{
		ID:          uuid.New(),
		Format:      format,
		Key:         key,
		URL:         url.URL,
		ExpiresAt:   url.ExpiresAt,
		SizeBytes:   len(data),
		Investors:   model.TotalInvestors,
		GeneratedAt: model.GeneratedAt,
	}
	s.recordExport(ctx, tenantID, userID, resp)
	return resp, nil
}

func (s *ReportService) recordExport(ctx context.Context, tenantID, userID uuid.UUID, resp *ExportResponse) {
	if s.audit == nil {
		return
	}
	changes := map[string]any{"format": resp.Format, "key": resp.Key, "investors": resp.Investors}
	if err := s.audit.Record(ctx, tenantID, &userID, audit.ActionExport, auditEntityType, resp.ID, changes); err != nil {
		s.logger.Warn("Failed to audit report export", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}

// BuildPipeline assembles the report view model: every stage in board order, investors sorted by
// priority then name, and a per-owner summary.
func (s *ReportService) BuildPipeline(ctx context.Context, tenantID uuid.UUID) (*report.PipelineReport, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	all, err := s.loadInvestors(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	owners, err := s.ownerNames(ctx, tenantID, all)
	if err != nil {
		return nil, err
	}

	model := &report.PipelineReport{
		Title:          "Fundraising pipeline",
		TenantName:     tenant.Name,
		Currency:       reportCurrency(all),
		GeneratedAt:    s.now().UTC(),
		TotalInvestors: len(all),
		TotalCheckSize: decimal.Zero,
		TotalCommitted: decimal.Zero,
	}

	byStage := make(map[investor.Stage][]investor.Investor)
	for _, inv := range all {
		byStage[inv.Stage] = append(byStage[inv.Stage], inv)
	}

	ownerTotals := map[string]*report.OwnerSummary{}
	titler := cases.Title(language.English)
	for _, stage := range investor.AllStages() {
		items := byStage[stage]
		sortForReport(items)
		section := report.StageSection{
			Stage:           string(stage),
			Label:           titler.String(strings.ReplaceAll(string(stage), "_", " ")),
			Count:           len(items),
			CheckSizeTotal:  decimal.Zero,
			CommitmentTotal: decimal.Zero,
		}
		for _, inv := range items {
			owner := unassignedOwner
			if inv.OwnerID != nil {
				if name, ok := owners[*inv.OwnerID]; ok {
					owner = name
				}
			}
			section.Investors = append(section.Investors, report.InvestorLine{
				Name:         inv.Name,
				Firm:         inv.FirmName,
				Type:         string(inv.Type),
				Priority:     string(inv.Priority),
				Owner:        owner,
				CheckSizeMax: inv.CheckSizeMax,
				Commitment:   inv.CommitmentAmount,
				NextFollowUp: inv.NextFollowUpAt,
			})
			section.CheckSizeTotal = section.CheckSizeTotal.Add(inv.CheckSizeMax)
			section.CommitmentTotal = section.CommitmentTotal.Add(inv.CommitmentAmount)

			o, ok := ownerTotals[owner]
			if !ok {
				o = &report.OwnerSummary{Name: owner, Committed: decimal.Zero}
				ownerTotals[owner] = o
			}
			o.Investors++
			o.Committed = o.Committed.Add(inv.CommitmentAmount)
		}
		model.TotalCheckSize = model.TotalCheckSize.Add(section.CheckSizeTotal)
		model.TotalCommitted = model.TotalCommitted.Add(section.CommitmentTotal)
		model.Stages = append(model.Stages, section)
	}

	for _, o := range ownerTotals {
		model.Owners = append(model.Owners, *o)
	}
	sort.Slice(model.Owners, func(i, j int) bool {
		if model.Owners[i].Investors != model.Owners[j].Investors {
			return model.Owners[i].Investors > model.Owners[j].Investors
		}
		return model.Owners[i].Name < model.Owners[j].Name
	})
	return model, nil
}

func (s *ReportService) loadInvestors(ctx context.Context, tenantID uuid.UUID) ([]investor.Investor, error) {
	var all []investor.Investor
	for page := 1; ; page++ {
		items, err := s.investors.FindAllForTenant(ctx, tenantID, shared.Filter{
			Page: page, PageSize: pageSize, OrderBy: "name", OrderDir: "asc",
		})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < pageSize {
			return all, nil
		}
	}
}

func (s *ReportService) ownerNames(ctx context.Context, tenantID uuid.UUID, items []investor.Investor) (map[uuid.UUID]string, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, inv := range items {
		if inv.OwnerID != nil && !seen[*inv.OwnerID] {
			seen[*inv.OwnerID] = true
			ids = append(ids, *inv.OwnerID)
		}
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	users, err := s.users.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		names[users[i].ID] = users[i].GetDisplayNameOrEmail()
	}
	return names, nil
}

var priorityRank = map[investor.Priority]int{
	investor.PriorityHigh:   0,
	investor.PriorityMedium: 1,
	investor.PriorityLow:    2,
}

func sortForReport(items []investor.Investor) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := priorityRank[items[i].Priority], priorityRank[items[j].Priority]
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

func reportCurrency(items []investor.Investor) string {
	currency := ""
	for _, inv := range items {
		switch {
		case currency == "":
			currency = inv.Currency
		case inv.Currency != currency:
			return mixedCurrencies
		}
	}
	if currency == "" {
		return "USD"
	}
	return currency
}
