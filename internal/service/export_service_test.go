package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
)

// ── ExportApplications ──

func TestExportService_ExportApplications_NoApplications(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.svc.Export.ExportApplications(context.Background(), &dto.ExportApplicationsRequest{})
	if !errors.Is(err, ErrExportNoApplications) {
		t.Errorf("expected ErrExportNoApplications, got %v", err)
	}
}

func TestExportService_ExportApplications_DraftsExcluded(t *testing.T) {
	env := newTestEnv(t)
	cand, _ := env.addCandidate(t, model.StatusStep4)
	env.addApplication(t, cand, false)

	_, _, err := env.svc.Export.ExportApplications(context.Background(), &dto.ExportApplicationsRequest{})
	if !errors.Is(err, ErrExportNoApplications) {
		t.Errorf("unfinished applications must not be exported, got %v", err)
	}
}

func TestExportService_ExportApplications_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cand, _ := env.addCandidate(t, model.StatusPending)
	env.addGuardian(t, cand, "Marie", "Dupont", "marie@example.com")
	app := env.addApplication(t, cand, true)
	if _, err := env.svc.Document.EnsureSignableDocuments(ctx, cand, app); err != nil {
		t.Fatalf("ensure documents failed: %v", err)
	}
	env.completeDocuments(t, app.ApplicationID)

	year := 2027
	buf, filename, err := env.svc.Export.ExportApplications(ctx, &dto.ExportApplicationsRequest{PromotionYear: &year, Status: "pending"})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if buf == nil || buf.Len() < 2 {
		t.Fatal("export buffer should not be empty")
	}
	// .xlsx files are zip archives and start with PK
	if b := buf.Bytes(); b[0] != 0x50 || b[1] != 0x4B {
		t.Error("output is not an xlsx file")
	}
	if !strings.HasPrefix(filename, "candidatures_promotion_2027_pending_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("unexpected filename %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Candidatures")
	if err != nil {
		t.Fatalf("sheet missing: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[0][0] != "Nom" || rows[0][10] != "Documents signés" {
		t.Errorf("unexpected header %v", rows[0])
	}
	row := rows[1]
	if row[0] != "Dupont" || row[1] != "Jean" || row[2] != "14/05/2010" {
		t.Errorf("unexpected identity columns %v", row[:3])
	}
	if row[6] != "2027" {
		t.Errorf("expected promotion 2027, got %s", row[6])
	}
	if row[10] != "5/5" {
		t.Errorf("expected 5/5 signed documents, got %s", row[10])
	}
	if row[11] != "Marie Dupont" || row[12] != "marie@example.com" {
		t.Errorf("unexpected guardian columns %v", row[11:])
	}
}
