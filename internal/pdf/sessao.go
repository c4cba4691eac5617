package pdf

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

// SessaoPDFData dados do cabeçalho do PDF de sessão.
type SessaoPDFData struct {
	PacienteNome string
	DataSessao   string // DD/MM/YYYY
	Situacao     string // EDITANDO | CONCLUIDO
	ConteudoHTML string
}

// BuildSessaoPDF gera o PDF de uma sessão: cabeçalho com paciente/data/situação e o
// relato como texto plano. Conteúdo vazio gera um documento vazio, não um erro.
func BuildSessaoPDF(d SessaoPDFData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Registro de Sessao", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Paciente: "+d.PacienteNome, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Data da sessao: "+d.DataSessao, "", 1, "L", false, 0, "")
	situacao := "Em edicao"
	if d.Situacao == "CONCLUIDO" {
		situacao = "Concluida"
	}
	pdf.CellFormat(0, 6, "Situacao: "+situacao, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, BodyFromHTML(d.ConteudoHTML), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BodyFromHTML muito simplificado: remove tags para texto plano no PDF.
func BodyFromHTML(html string) string {
	var out []byte
	inTag := false
	for i := 0; i < len(html); i++ {
		c := html[i]
		if c == '<' {
			inTag = true
			continue
		}
		if inTag {
			if c == '>' {
				inTag = false
				out = append(out, ' ')
			}
			continue
		}
		if c == '&' {
			// entity simplificada
			if i+4 <= len(html) && html[i:i+4] == "&lt;" {
				out = append(out, '<')
				i += 3
				continue
			}
			if i+4 <= len(html) && html[i:i+4] == "&gt;" {
				out = append(out, '>')
				i += 3
				continue
			}
			if i+5 <= len(html) && html[i:i+5] == "&amp;" {
				out = append(out, '&')
				i += 4
				continue
			}
		}
		out = append(out, c)
	}
	return string(out)
}
