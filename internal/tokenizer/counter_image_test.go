package tokenizer

import (
	"testing"

	"github.com/mandalnilabja/openai-relay/internal/types"
)

func TestCountImageTokens(t *testing.T) {
	tok := New()
	low := imageBaseTokens + imageLowDetailTiles*imageTileTokens
	high := imageBaseTokens + imageHighDetailMax*imageTileTokens

	tests := map[string]struct {
		image *types.ImageURL
		want  int
	}{
		"nil image":    {nil, 0},
		"low detail":   {&types.ImageURL{URL: "https://example.com/a.png", Detail: "low"}, low},
		"LOW detail":   {&types.ImageURL{URL: "https://example.com/a.png", Detail: "LOW"}, low},
		"high detail":  {&types.ImageURL{URL: "https://example.com/a.png", Detail: "high"}, high},
		"auto detail":  {&types.ImageURL{URL: "https://example.com/a.png", Detail: "auto"}, high},
		"detail unset": {&types.ImageURL{URL: "https://example.com/a.png"}, high},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tok.countImageTokens(tc.image); got != tc.want {
				t.Errorf("countImageTokens() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCountContent_ImageOnlyNeedsNoEncoding(t *testing.T) {
	tok := New()
	content := types.Content{Parts: []types.ContentPart{
		{Type: types.ContentTypeImageURL, ImageURL: &types.ImageURL{URL: "https://example.com/a.png", Detail: "low"}},
	}}

	got, err := tok.countContent(content, "gpt-4o")
	if err != nil {
		t.Fatalf("countContent: %v", err)
	}
	if want := imageBaseTokens + imageLowDetailTiles*imageTileTokens; got != want {
		t.Errorf("countContent() = %d, want %d", got, want)
	}
}
