package tokenizer

import (
	"strings"

	"github.com/mandalnilabja/openai-relay/internal/types"
)

// Message token overhead varies by model family.
const (
	messageOverheadGPT4  = 3 // <|start|>role<|end|>
	messageOverheadGPT35 = 4

	// Reply priming tokens (assistant response start)
	replyPrimingTokens = 3

	nameOverhead     = 1
	toolCallOverhead = 5 // {"type":"function","id":"...","function":{...}}

	// Image token constants (OpenAI rules)
	imageBaseTokens     = 85  // Base cost for any image
	imageTileTokens     = 170 // Cost per 512x512 tile
	imageLowDetailTiles = 1
	imageHighDetailMax  = 4 // simplified, no image dimensions available
)

// CountMessages counts tokens for a slice of messages.
func (t *TiktokenTokenizer) CountMessages(messages []types.Message, model string) (int, error) {
	total := 0
	overhead := t.getMessageOverhead(model)

	for _, msg := range messages {
		tokens, err := t.countMessage(msg, model)
		if err != nil {
			return 0, err
		}
		total += tokens + overhead
	}

	return total + replyPrimingTokens, nil
}

// countMessage counts tokens for a single message.
func (t *TiktokenTokenizer) countMessage(msg types.Message, model string) (int, error) {
	total, err := t.CountTokens(msg.Role, model)
	if err != nil {
		return 0, err
	}

	contentTokens, err := t.countContent(msg.Content, model)
	if err != nil {
		return 0, err
	}
	total += contentTokens

	if msg.Name != "" {
		nameTokens, err := t.CountTokens(msg.Name, model)
		if err != nil {
			return 0, err
		}
		total += nameTokens + nameOverhead
	}

	for _, call := range msg.ToolCalls {
		callTokens, err := t.countToolCall(call, model)
		if err != nil {
			return 0, err
		}
		total += callTokens
	}

	if msg.ToolCallID != "" {
		idTokens, err := t.CountTokens(msg.ToolCallID, model)
		if err != nil {
			return 0, err
		}
		total += idTokens
	}

	return total, nil
}

// countToolCall counts tokens for one tool call in an assistant message.
func (t *TiktokenTokenizer) countToolCall(call types.ToolCall, model string) (int, error) {
	total := toolCallOverhead
	for _, s := range []string{call.ID, call.Function.Name, call.Function.Arguments} {
		if s == "" {
			continue
		}
		n, err := t.CountTokens(s, model)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// getMessageOverhead returns the per-message token overhead for a model.
func (t *TiktokenTokenizer) getMessageOverhead(model string) int {
	if strings.HasPrefix(strings.ToLower(model), "gpt-3.5") {
		return messageOverheadGPT35
	}
	return messageOverheadGPT4
}

// countContent counts text content, or each part of multimodal content.
func (t *TiktokenTokenizer) countContent(content types.Content, model string) (int, error) {
	if content.Text != "" {
		return t.CountTokens(content.Text, model)
	}

	total := 0
	for _, part := range content.Parts {
		switch part.Type {
		case types.ContentTypeText:
			n, err := t.CountTokens(part.Text, model)
			if err != nil {
				return 0, err
			}
			total += n
		case types.ContentTypeImageURL:
			total += t.countImageTokens(part.ImageURL)
		}
	}
	return total, nil
}

// countImageTokens prices an image by its detail level. "auto" and unset
// are priced as high detail.
func (t *TiktokenTokenizer) countImageTokens(img *types.ImageURL) int {
	if img == nil {
		return 0
	}
	if strings.EqualFold(img.Detail, "low") {
		return imageBaseTokens + imageLowDetailTiles*imageTileTokens
	}
	return imageBaseTokens + imageHighDetailMax*imageTileTokens
}
