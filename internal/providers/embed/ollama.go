package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/healthbot/pkg/retry"
)

// Ollama embeds text via the native /api/embed endpoint.
//
// Models of the nomic family expect a task prefix on the input; we apply
// "search_query: " / "search_document: " so queries and stored passages
// land in compatible subspaces.
type Ollama struct {
	client  *http.Client
	retrier *retry.Retrier
	baseURL string
	model   string
}

func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		retrier: retry.NewDefaultRetrier(),
		baseURL: baseURL,
		model:   model,
	}
}

func (o *Ollama) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return o.encode(ctx, "search_query: "+text)
}

func (o *Ollama) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return o.encode(ctx, "search_document: "+text)
}

func (o *Ollama) encode(ctx context.Context, input string) ([]float32, error) {
	payload := map[string]any{
		"model": o.model,
		"input": input,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var vector []float32
	err = o.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
		}

		var result struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return fmt.Errorf("empty embeddings: %s", string(body))
		}
		vector = result.Embeddings[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}
