// Package packaging turns a paid track into its deliverable artifacts: the
// rights document and the zip archive bundling it with the audio.
package packaging

import (
	"bytes"
	"time"

	"github.com/go-pdf/fpdf"

	dErrors "beatvault/pkg/domain-errors"
)

const licenseTerms = "This license grants the buyer a non-exclusive, non-transferable right " +
	"to use the licensed audio work in personal and commercial projects, including streaming, " +
	"performance and synchronization, subject to the terms published at the time of purchase. " +
	"Resale or redistribution of the unmodified audio work is not permitted. The producer " +
	"retains full ownership of the underlying composition and master recording."

// GenerateLicense renders the single-page rights document. Output is
// deterministic for identical inputs, including the purchase timestamp, so a
// re-run of the same fulfillment produces byte-identical documents.
func (p *Packager) GenerateLicense(trackTitle, buyerName, buyerEmail string, purchasedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Pin both document dates: fpdf falls back to the wall clock for any date
	// left unset, which would leak into the output bytes.
	pdf.SetCreationDate(purchasedAt)
	pdf.SetModificationDate(purchasedAt)
	pdf.SetTitle("License Certificate", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Beat License Certificate")
	pdf.Ln(18)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, "Purchase date: "+purchasedAt.Format("January 2, 2006"))
	pdf.Ln(8)
	pdf.Cell(0, 7, "Track: "+trackTitle)
	pdf.Ln(8)
	pdf.Cell(0, 7, "Licensed to: "+buyerName+" <"+buyerEmail+">")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "License terms")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5.5, licenseTerms, "", "L", false)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Questions about this license? Contact "+p.contactEmail+".")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, dErrors.Wrap(dErrors.CodePackaging, "render license document", err)
	}
	return buf.Bytes(), nil
}
