package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/output"
)

const (
	defaultChatModel      = "meta-llama/Meta-Llama-3.1-8B-Instruct"
	defaultEmbeddingModel = "thenlper/gte-large"
)

func newAICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Telnyx AI inference",
	}
	cmd.AddCommand(newAIModelsCmd(), newAIChatCmd(), newAIEmbedCmd())
	return cmd
}

type aiModel struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

var modelColumns = output.Columns(
	"owner", "OWNER",
	"id", "MODEL",
)

func newAIModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching models...")
			res, err := fetchList[aiModel](cmd.Context(), a.client.V2(), "/ai/models", "data", a.opts())
			if err != nil {
				return err
			}

			sort.SliceStable(res.Items, func(i, j int) bool {
				if res.Items[i].OwnedBy != res.Items[j].OwnedBy {
					return res.Items[i].OwnedBy < res.Items[j].OwnedBy
				}
				return res.Items[i].ID < res.Items[j].ID
			})
			res.Meta = nil

			if err := renderList(a, res, modelColumns, func(m aiModel) output.Record {
				return output.NewRecord("owner", output.OrDash(m.OwnedBy), "id", m.ID)
			}); err != nil {
				return err
			}
			if a.tableOnly() && len(res.Items) > 0 {
				a.linef("")
				a.linef("%d model(s) available", len(res.Items))
			}
			return nil
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

var chatColumns = output.Columns(
	"model", "Model",
	"content", "Response",
)

func newAIChatCmd() *cobra.Command {
	var (
		model       string
		system      string
		maxTokens   int
		temperature float64
		stream      bool
	)

	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Send a prompt to a chat model",
		Long: `Send a prompt to a chat model.

The response streams to stdout as it is generated. Other output
formats (--json, -o yaml|csv|tsv|ids) wait for the complete response.

Examples:
  telnyx ai chat "Summarize E.164 in one sentence"
  telnyx ai chat "Write a haiku" --model meta-llama/Meta-Llama-3.1-70B-Instruct
  telnyx ai chat "Hello" --system "Answer in French" --stream=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			req := chatRequest{
				Model:       model,
				MaxTokens:   maxTokens,
				Temperature: temperature,
			}
			if system != "" {
				req.Messages = append(req.Messages, chatMessage{Role: "system", Content: system})
			}
			req.Messages = append(req.Messages, chatMessage{Role: "user", Content: args[0]})

			if stream && a.tableOnly() {
				req.Stream = true
				if err := a.client.Stream(cmd.Context(), "/ai/chat/completions", req, a.opts(), a.out); err != nil {
					return err
				}
				a.linef("")
				return nil
			}

			a.ui.Info("Waiting for %s...", model)
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/ai/chat/completions", req, a.opts(), &body); err != nil {
				return err
			}
			var resp chatResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return errors.New("model returned no choices")
			}
			content := resp.Choices[0].Message.Content

			if !a.tableOnly() {
				var raw any
				if err := json.Unmarshal(body, &raw); err != nil {
					return err
				}
				return a.renderDetail(output.NewRecord("model", model, "content", content), chatColumns, raw)
			}

			a.linef("%s", content)
			if u := resp.Usage; u != nil {
				a.linef("")
				a.linef("Tokens: %d prompt + %d completion = %d total", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", defaultChatModel, "model ID (see: telnyx ai models)")
	cmd.Flags().StringVarP(&system, "system", "s", "", "system prompt")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 1024, "maximum tokens to generate")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "sampling temperature")
	cmd.Flags().BoolVar(&stream, "stream", true, "stream the response as it is generated")
	return cmd
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

var embeddingColumns = output.Columns(
	"model", "Model",
	"dimensions", "Dimensions",
	"tokens", "Tokens",
)

// embeddingPreview shows at most the first n values.
func embeddingPreview(values []float64, n int) string {
	parts := make([]string, 0, n)
	for i, v := range values {
		if i == n {
			break
		}
		parts = append(parts, strconv.FormatFloat(v, 'f', 6, 64))
	}
	preview := "[" + strings.Join(parts, ", ")
	if len(values) > n {
		preview += "..."
	}
	return preview + "]"
}

func newAIEmbedCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "embed <text>",
		Short: "Generate an embedding for text",
		Long: `Generate an embedding for text.

Examples:
  telnyx ai embed "Hello world"
  telnyx ai embed "Machine learning is fascinating" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Generating embedding...")
			payload := map[string]string{"model": model, "input": args[0]}
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/ai/embeddings", payload, a.opts(), &body); err != nil {
				return err
			}
			var resp embeddingResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			if len(resp.Data) == 0 {
				return errors.New("model returned no embeddings")
			}
			values := resp.Data[0].Embedding

			if !a.tableOnly() {
				var raw any
				if err := json.Unmarshal(body, &raw); err != nil {
					return err
				}
				rec := output.NewRecord(
					"model", resp.Model,
					"dimensions", strconv.Itoa(len(values)),
					"tokens", strconv.Itoa(resp.Usage.TotalTokens),
				)
				return a.renderDetail(rec, embeddingColumns, raw)
			}

			a.ui.Success("Generated %d-dimensional embedding", len(values))
			a.linef("Model: %s", resp.Model)
			a.linef("Tokens: %d", resp.Usage.TotalTokens)
			a.linef("")
			a.linef("First 10 values: %s", embeddingPreview(values, 10))
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", defaultEmbeddingModel, "embedding model")
	return cmd
}
