// Command docrepair points document rows back at their files after the upload
// directory moved, and optionally removes PDFs no row references.
//
//	docrepair [-dry-run] [-sweep] [-config path]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"acadef/backend/config"
	"acadef/backend/internal/repository"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/database"
	applogger "acadef/backend/pkg/logger"
	"acadef/backend/pkg/pdf"
	"acadef/backend/pkg/storage"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	sweep := flag.Bool("sweep", false, "also delete PDFs that no document row references")
	configPath := flag.String("config", os.Getenv("ACADEF_CONFIG"), "config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		color.Red("load config: %v", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		color.Red("init logger: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	store, err := storage.NewResolver(&cfg.Storage)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}

	docs := service.NewDocumentService(cfg, repository.NewRepository(db), store, pdf.NewRenderer(), nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *dryRun {
		color.Yellow("Dry run: nothing will be written")
	}

	report, err := docs.RepairPaths(ctx, *dryRun)
	if err != nil {
		color.Red("repair failed: %v", err)
		os.Exit(1)
	}
	printReport(report, *dryRun)

	if *sweep {
		orphans, err := docs.SweepOrphans(ctx, *dryRun)
		if err != nil {
			color.Red("sweep failed: %v", err)
			os.Exit(1)
		}
		printOrphans(orphans, *dryRun)
	}

	if len(report.Missing) > 0 {
		os.Exit(2)
	}
}

func printReport(report *service.RepairReport, dryRun bool) {
	color.Cyan("\n=== Document paths ===")
	fmt.Printf("Checked: %d  Drifted: %d  Missing: %d\n", report.Checked, len(report.Fixed), len(report.Missing))

	if len(report.Fixed) > 0 {
		verb := "Repaired"
		if dryRun {
			verb = "Would repair"
		}
		color.Green("\n%s", verb)
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Document", "Type", "Stored path", "Found at"})
		for _, fix := range report.Fixed {
			table.Append([]string{fix.DocumentID, fix.Type, fix.From, fix.To})
		}
		table.Render()
	}

	if len(report.Missing) > 0 {
		color.Red("\nFile not found anywhere")
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Document", "Type", "Application", "Filename"})
		for _, d := range report.Missing {
			table.Append([]string{d.DocumentID, d.DocumentType, d.ApplicationID, d.Filename})
		}
		table.Render()
		color.Yellow("Signable documents are recreated the next time the applicant opens step 4; admins can regenerate them from the review screen.")
	}
}

func printOrphans(orphans []string, dryRun bool) {
	color.Cyan("\n=== Orphan files ===")
	if len(orphans) == 0 {
		fmt.Println("None")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "File"})
	for i, name := range orphans {
		table.Append([]string{strconv.Itoa(i + 1), name})
	}
	table.Render()

	if dryRun {
		color.Yellow("%d file(s) would be deleted", len(orphans))
	} else {
		color.Green("%d file(s) deleted", len(orphans))
	}
}
