package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
	"acadef/backend/internal/repository"
)

var (
	ErrExportNoApplications = errors.New("aucune candidature à exporter")
	ErrExportGenerateFail   = errors.New("échec de la génération du fichier Excel")
)

// ExportService spreadsheet exports for the admission office.
// Files are returned as a buffer; the handler sets the response headers.
type ExportService interface {
	// ExportApplications one row per submitted application matching the filters.
	ExportApplications(ctx context.Context, req *dto.ExportApplicationsRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var exportHeaders = []string{
	"Nom", "Prénom", "Date de naissance", "Email", "Téléphone", "Ville",
	"Promotion", "Statut", "Date de candidature", "Soumise le",
	"Documents signés", "Tuteurs légaux", "Emails des tuteurs",
}

// ────────────────────── ExportApplications ──────────────────────

func (s *exportService) ExportApplications(ctx context.Context, req *dto.ExportApplicationsRequest) (*bytes.Buffer, string, error) {
	filter := repository.ApplicationFilter{
		Status:        req.Status,
		PromotionYear: req.PromotionYear,
		SubmittedOnly: true,
	}
	apps, err := s.repo.Application.ListAll(ctx, filter)
	if err != nil {
		s.logger.Error("list applications failed", zap.Error(err))
		return nil, "", err
	}
	if len(apps) == 0 {
		return nil, "", ErrExportNoApplications
	}

	candIDs := make([]string, 0, len(apps))
	appIDs := make([]string, 0, len(apps))
	for _, a := range apps {
		candIDs = append(candIDs, a.CandidateID)
		appIDs = append(appIDs, a.ApplicationID)
	}

	candidates, err := s.repo.Candidate.ListByIDs(ctx, candIDs)
	if err != nil {
		s.logger.Error("list candidates failed", zap.Error(err))
		return nil, "", err
	}
	candByID := make(map[string]*model.Candidate, len(candidates))
	for i := range candidates {
		candByID[candidates[i].CandidateID] = &candidates[i]
	}

	docs, err := s.repo.Document.ListByApplicationIDs(ctx, appIDs)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		return nil, "", err
	}
	signed := make(map[string]int, len(apps))
	for _, d := range docs {
		if d.Status == model.DocStatusComplete && isWizardDocument(d.DocumentType) {
			signed[d.ApplicationID]++
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Candidatures"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F3864"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range exportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
		f.SetColWidth(sheetName, colName(i), colName(i), 18)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)
	f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	row := 2
	for _, a := range apps {
		c, ok := candByID[a.CandidateID]
		if !ok {
			s.logger.Warn("application without candidate", zap.String("application_id", a.ApplicationID))
			continue
		}

		guardians, err := s.repo.Guardian.ListByCandidate(ctx, c.CandidateID)
		if err != nil {
			s.logger.Error("list guardians failed", zap.String("candidate_id", c.CandidateID), zap.Error(err))
			return nil, "", err
		}
		names := make([]string, 0, len(guardians))
		emails := make([]string, 0, len(guardians))
		for i := range guardians {
			names = append(names, guardians[i].FullName())
			emails = append(emails, guardians[i].Email)
		}

		promotion := ""
		if a.PromotionYear != nil {
			promotion = fmt.Sprintf("%d", *a.PromotionYear)
		}
		submitted := ""
		if a.SubmittedAt != nil {
			submitted = a.SubmittedAt.Format("02/01/2006 15:04")
		}

		values := []any{
			c.LastName,
			c.FirstName,
			formatDate(c.DateOfBirth),
			c.Email,
			firstNonEmpty(c.MobilePhone, c.Phone),
			c.City,
			promotion,
			a.Status,
			formatDate(a.ApplicationDate),
			submitted,
			fmt.Sprintf("%d/%d", signed[a.ApplicationID], len(model.SignableDocumentTypes)),
			strings.Join(names, ", "),
			strings.Join(emails, ", "),
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write excel failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := "candidatures"
	if req.PromotionYear != nil {
		filename += fmt.Sprintf("_promotion_%d", *req.PromotionYear)
	}
	if req.Status != "" {
		filename += "_" + req.Status
	}
	filename += "_" + time.Now().Format("20060102") + ".xlsx"
	return buf, filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
