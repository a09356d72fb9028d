package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData is the content printed on a certificate.
type CertificateData struct {
	StudentName       string
	CourseTitle       string
	CertificateNumber string
	TheoryScore       float64
	PracticalScore    float64
	TotalScore        float64
	Grade             string
	HasPractical      bool
	IssueDate         time.Time
	VerifyURL         string
}

// CertificateRenderer renders certificates as landscape A4 PDFs.
type CertificateRenderer struct {
	title  string
	issuer string
}

// NewCertificateRenderer constructs a renderer. Empty values fall back to defaults.
func NewCertificateRenderer(title, issuer string) *CertificateRenderer {
	if strings.TrimSpace(title) == "" {
		title = "Certificate of Completion"
	}
	return &CertificateRenderer{title: title, issuer: strings.TrimSpace(issuer)}
}

// Render produces the PDF bytes for a certificate.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if strings.TrimSpace(data.CertificateNumber) == "" {
		return nil, fmt.Errorf("pdf requires a certificate number")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle(r.title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetDrawColor(40, 70, 120)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 28)
	pdf.CellFormat(0, 14, tr(r.title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 8, "This is to certify that", "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 12, tr(data.StudentName), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 8, "has successfully completed the course", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(data.CourseTitle), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("Theory Score: %.2f", data.TheoryScore), "", 1, "C", false, 0, "")
	if data.HasPractical {
		pdf.CellFormat(0, 7, fmt.Sprintf("Practical Score: %.2f", data.PracticalScore), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 7, fmt.Sprintf("Total Score: %.2f", data.TotalScore), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Grade: "+data.Grade, "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Certificate Number: "+data.CertificateNumber, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Issue Date: "+data.IssueDate.Format("2006-01-02"), "", 1, "C", false, 0, "")
	if r.issuer != "" {
		pdf.CellFormat(0, 6, tr("Issued by "+r.issuer), "", 1, "C", false, 0, "")
	}
	if data.VerifyURL != "" {
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, "Verify at: "+data.VerifyURL, "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
