package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"triostack/internal/apierror"
	"triostack/internal/repository"
)

// ReportService renders the asset register as a downloadable PDF.
type ReportService interface {
	AssetRegisterPDF(ctx context.Context) ([]byte, error)
}

type reportService struct {
	assets repository.AssetRepository
}

func NewReportService(assets repository.AssetRepository) ReportService {
	return &reportService{assets: assets}
}

func (s *reportService) AssetRegisterPDF(ctx context.Context) ([]byte, error) {
	assets, err := s.assets.FindAll(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}

	now := time.Now().UTC()
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Asset Register")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s — %d assets", now.Format("2006-01-02 15:04 UTC"), len(assets)))
	pdf.Ln(10)

	headers := []string{"Name", "Type", "Category", "Status", "Serial", "Purchased", "Expires", "Cost"}
	widths := []float64{60, 28, 35, 24, 35, 25, 25, 25}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	total := decimal.Zero
	for i := range assets {
		a := &assets[i]
		total = total.Add(decimal.NewFromFloat(a.Cost))

		expiry := "-"
		if a.ExpiryDate != nil {
			expiry = a.ExpiryDate.Format("2006-01-02")
		}
		row := []string{
			truncate(a.Name, 38),
			string(a.Type),
			truncate(a.Category, 22),
			string(a.DeriveStatus(now)),
			truncate(a.SerialNumber, 22),
			a.PurchaseDate.Format("2006-01-02"),
			expiry,
			decimal.NewFromFloat(a.Cost).StringFixed(2),
		}
		for j, cell := range row {
			align := "L"
			if j == len(row)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[j], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	var labelWidth float64
	for _, w := range widths[:len(widths)-1] {
		labelWidth += w
	}
	pdf.CellFormat(labelWidth, 7, "Total cost", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[len(widths)-1], 7, total.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apierror.Internal(err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "..."
}
