package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// QwenProvider calls the native DashScope text-generation API.
// See: https://help.aliyun.com/document_detail/2712532.html
type QwenProvider struct {
	Model string
}

var _ Provider = (*QwenProvider)(nil)

func (p *QwenProvider) Name() string { return "qwen" }

func (p *QwenProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	apiKey := os.Getenv("DASHSCOPE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("QWEN_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("QWEN_API_KEY_MISSING: Please set DASHSCOPE_API_KEY or QWEN_API_KEY")
	}

	model := p.Model
	if model == "" {
		model = "qwen-max"
	}
	if req.Model != "" {
		model = req.Model
	}

	prompt := req.Prompt
	for _, doc := range req.Documents {
		if doc.Text != "" {
			prompt += fmt.Sprintf("\n\n=== DOCUMENT: %s ===\n%s", doc.Filename, doc.Text)
		}
	}

	reqBody := map[string]interface{}{
		"model": model,
		"input": map[string]interface{}{
			"messages": []map[string]string{
				{"role": "system", "content": req.System},
				{"role": "user", "content": prompt},
			},
		},
		"parameters": map[string]interface{}{
			"result_format": "message",
			"temperature":   req.Temperature,
		},
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("QWEN_MARSHAL_ERROR: %v", err)
	}

	url := "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("QWEN_REQ_CREATE_ERROR: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{}
	res, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("QWEN_API_CALL_ERROR: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("QWEN_READ_BODY_ERROR: %v", err)
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("QWEN_API_ERROR: status=%d body=%s", res.StatusCode, string(body))
	}

	var response struct {
		Output struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"output"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("QWEN_UNMARSHAL_ERROR: %v", err)
	}
	if len(response.Output.Choices) == 0 {
		return nil, fmt.Errorf("QWEN_NO_CHOICES: %s", string(body))
	}

	text := strings.TrimSpace(response.Output.Choices[0].Message.Content)
	return &Completion{
		Text:         text,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}, nil
}
