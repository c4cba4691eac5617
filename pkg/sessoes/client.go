package sessoes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

// Client fala com os endpoints de sessões do backend. BaseURL inclui o prefixo
// da API (ex.: http://localhost:8080/api); Token é o JWT do profissional.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// statusError carrega o código HTTP de uma resposta não-2xx. O Store converte
// para a taxonomia pública; ele nunca vaza para fora do pacote.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &statusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type sessaoPayload struct {
	DataSessao string `json:"data_sessao"`
	Conteudo   string `json:"conteudo"`
}

// checaSituacao barra na borda do wire um valor fora do tipo fechado.
func checaSituacao(s Situacao) error {
	if !s.Valida() {
		return fmt.Errorf("%w: %q", ErrSituacaoDesconhecida, s)
	}
	return nil
}

func (c *Client) ListSessoes(ctx context.Context, pacienteID int64) ([]Sessao, error) {
	var out []Sessao
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/pacientes/%d/sessoes", pacienteID), nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if err := checaSituacao(out[i].Situacao); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Client) CreateSessao(ctx context.Context, pacienteID int64, dataSessao, conteudo string) (*Sessao, error) {
	var out Sessao
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/pacientes/%d/sessoes", pacienteID),
		sessaoPayload{DataSessao: dataSessao, Conteudo: conteudo}, &out)
	if err != nil {
		return nil, err
	}
	if err := checaSituacao(out.Situacao); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSessao(ctx context.Context, pacienteID, sessaoID int64, dataSessao, conteudo string) (*Sessao, error) {
	var out Sessao
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/pacientes/%d/sessoes/%d", pacienteID, sessaoID),
		sessaoPayload{DataSessao: dataSessao, Conteudo: conteudo}, &out)
	if err != nil {
		return nil, err
	}
	if err := checaSituacao(out.Situacao); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSessao(ctx context.Context, pacienteID, sessaoID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/pacientes/%d/sessoes/%d", pacienteID, sessaoID), nil, nil)
}

func (c *Client) ConcluirSessao(ctx context.Context, pacienteID, sessaoID int64) (*Sessao, error) {
	var out Sessao
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/pacientes/%d/sessoes/%d/concluir", pacienteID, sessaoID), nil, &out)
	if err != nil {
		return nil, err
	}
	if err := checaSituacao(out.Situacao); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadSessao baixa o PDF da sessão e devolve os bytes e o nome sugerido
// pelo header Content-Disposition. Sem header (ou com header ilegível), cai no
// padrão determinístico sessao_{id}.pdf.
func (c *Client) DownloadSessao(ctx context.Context, pacienteID, sessaoID int64) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/pacientes/%d/sessoes/%d/download", pacienteID, sessaoID), nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return raw, filenameFrom(resp.Header.Get("Content-Disposition"), sessaoID), nil
}

func filenameFrom(contentDisposition string, sessaoID int64) string {
	fallback := fmt.Sprintf("sessao_%d.pdf", sessaoID)
	if contentDisposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return fallback
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return fallback
}
