package pdf

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// DocumentoPDFData dados do documento gerado (declaração, atestado etc.).
type DocumentoPDFData struct {
	Titulo            string
	PacienteNome      string
	ConteudoHTML      string
	VerificationToken string
	VerificationURL   string
	EmitidoEm         string
}

// BuildDocumentoPDF gera o PDF de um documento do prontuário com bloco de
// verificação: token e QR code apontando para a URL pública de conferência.
func BuildDocumentoPDF(d DocumentoPDFData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, d.Titulo, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Paciente: "+d.PacienteNome, "", 1, "L", false, 0, "")
	if d.EmitidoEm != "" {
		pdf.CellFormat(0, 6, "Emitido em: "+d.EmitidoEm, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
	pdf.MultiCell(0, 6, BodyFromHTML(d.ConteudoHTML), "", "", false)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Verificacao de autenticidade", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Token: "+d.VerificationToken, "", 1, "L", false, 0, "")
	if d.VerificationURL != "" {
		qrPNG, err := qrcode.Encode(d.VerificationURL, qrcode.Medium, 128)
		if err == nil {
			tmpFile, err := os.CreateTemp("", "qr-*.png")
			if err == nil {
				tmpFile.Write(qrPNG)
				path := tmpFile.Name()
				tmpFile.Close()
				defer os.Remove(path)
				pdf.RegisterImage(path, "PNG")
				pdf.Image(path, 15, pdf.GetY(), 30, 30, false, "", 0, "")
				pdf.SetY(pdf.GetY() + 32)
			}
		}
		pdf.CellFormat(0, 5, "Link: "+d.VerificationURL, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// VerificationURLFor monta a URL pública de conferência do documento.
func VerificationURLFor(appPublicURL, token string) string {
	if appPublicURL == "" || token == "" {
		return ""
	}
	return fmt.Sprintf("%s/verificar/%s", appPublicURL, token)
}
