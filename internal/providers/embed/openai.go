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

// OpenAI embeds text via the /v1/embeddings dialect, shared by OpenAI
// and most self-hosted gateways.
type OpenAI struct {
	client  *http.Client
	retrier *retry.Retrier
	baseURL string
	apiKey  string
	model   string
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	return &OpenAI{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		retrier: retry.NewDefaultRetrier(),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

func (o *OpenAI) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return o.encode(ctx, text)
}

func (o *OpenAI) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return o.encode(ctx, text)
}

func (o *OpenAI) encode(ctx context.Context, input string) ([]float32, error) {
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
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/embeddings", bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if o.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+o.apiKey)
		}

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
			Data []struct {
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if len(result.Data) == 0 {
			return fmt.Errorf("empty embeddings: %s", string(body))
		}
		vector = result.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}
