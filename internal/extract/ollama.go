package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// invoicePromptTemplate instructs the multimodal model to answer with nothing but
// the nested JSON object. The example-driven format pins the vocabulary the
// mapping table expects first; the {{categorias}} marker is filled from the
// taxonomy in constants.
const invoicePromptTemplate = `Você é um sistema de extração de dados altamente preciso. Analise a imagem da Nota Fiscal de Serviços (NFS-e) em anexo.
Sua única tarefa é retornar um objeto JSON. Não retorne NADA além do objeto JSON.
Preencha a estrutura JSON abaixo com os dados exatos encontrados na imagem.
Sugira uma 'categoria' com base na 'discriminacao' do serviço, escolhendo entre: {{categorias}}.

Use este formato com exemplos como seu guia:
{
  "numero_nota": "00016838",
  "data_hora_emissao": "18/11/2018",
  "codigo_verificacao": "LUES-8XKJ",
  "prestador": {
    "cnpj": "00.126.717/0001-84",
    "razao_social": "CLINICA VALERIO LTDA",
    "inscricao_municipal": "2.276.461-5",
    "endereco": { "logradouro": "R PORTO XAVIER 00066", "bairro": "TAQUERA", "cep": "08210-170", "cidade": "São Paulo", "uf": "SP" }
  },
  "tomador": {
    "cpf": "050.972.418-09",
    "razao_social": "DIELSON DOS PASSOS MENDES",
    "email": "dielsonmendes@hotmail.com",
    "endereco": { "logradouro": "R Salvador do Sul 154, APTO 02 BL 02", "bairro": "Vila Progresso (Zona Leste)", "cep": "08240-500", "cidade": "São Paulo", "uf": "SP" }
  },
  "servico": { "discriminacao": "REFERENTE A SERVIÇOS ODONTOLOGICO DO MESMO", "codigo": "04893", "descricao": "Odontologia." },
  "valores": { "total_servico": "R$ 1.200,00", "base_calculo": "1.200,00", "aliquota": "2,00%", "valor_iss": "24,00" },
  "valor_total_impostos": "R$ 195,96",
  "categoria": "Saúde"
}`

var invoicePrompt = strings.Replace(invoicePromptTemplate,
	"{{categorias}}", "'"+strings.Join(constants.AsStringSlice(), "', '")+"'", 1)

// OllamaVision extracts fields by sending the document image to a local
// multimodal model through the Ollama chat API.
type OllamaVision struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

func NewOllamaVision(baseURL, model string, timeout time.Duration, logger *slog.Logger) *OllamaVision {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llava:13b"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaVision{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (o *OllamaVision) Name() string { return "ollama-vision" }

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func (o *OllamaVision) Extract(ctx context.Context, doc entity.SourceDocument) (RawResult, error) {
	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	reqBody := ollamaChatRequest{
		Model: o.model,
		Messages: []ollamaChatMessage{{
			Role:    "user",
			Content: invoicePrompt,
			Images:  []string{base64.StdEncoding.EncodeToString(data)},
		}},
		Stream:  false,
		Options: map[string]any{"temperature": 0.0},
	}
	bs, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	o.logger.Info("extract.ollama.response",
		"model", o.model, "status", resp.StatusCode, "bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var chat ollamaChatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	fields, err := ExtractJSONObject(chat.Message.Content)
	if err != nil {
		// model replied with prose; nothing extracted, let the next strategy run
		o.logger.Warn("extract.ollama.no_json", "model", o.model, "error", err)
		return RawResult{}, nil
	}
	if err := ValidateRaw(fields); err != nil {
		o.logger.Warn("extract.ollama.schema_reject", "model", o.model, "error", err)
		return RawResult{}, nil
	}
	return fields, nil
}
