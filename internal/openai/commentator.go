package openai

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"cryptoPortfolioSim/internal/portfolio"
)

const DefaultModel = "gpt-4o-mini"

// Commentator writes a short plain-language note about a portfolio run.
type Commentator struct {
	cli   oa.Client
	model string
}

func NewCommentator(apiKey, model string, opts ...option.RequestOption) *Commentator {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Commentator{cli: oa.NewClient(opts...), model: model}
}

func (c *Commentator) Describe(ctx context.Context, run *portfolio.Run) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: oa.ChatModel(c.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage("You describe the historical performance of a simulated crypto portfolio in at most 4 short sentences. State facts from the data only. No advice, no predictions, no risk metrics."),
			oa.UserMessage(describePrompt(run)),
		},
		MaxTokens: oa.Int(300),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// describePrompt lists the run's figures, one coin per line.
func describePrompt(run *portfolio.Run) string {
	s := run.Summary()
	var b strings.Builder
	fmt.Fprintf(&b, "Timeframe: %s (%s to %s)\n", s.Timeframe, s.Start, s.End)
	fmt.Fprintf(&b, "Invested: %s\nFinal value: %s\nGrowth: %s\n", s.Investment, s.FinalValue, s.Growth)
	for _, c := range run.Coins {
		g := run.Growth[c]
		fmt.Fprintf(&b, "- %s weight %.1f%%, price change %s\n", c, run.Weights[c]*100, portfolio.FormatGrowth((g[len(g)-1]-1)*100))
	}
	return b.String()
}
