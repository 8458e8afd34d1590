package rag

import (
	"testing"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		cfg            ChunkerConfig
		expectedChunks []string
	}{
		{
			name:           "Empty input",
			text:           "",
			cfg:            DefaultChunkerConfig(),
			expectedChunks: nil,
		},
		{
			name:           "Whitespace only",
			text:           "   \n\t   ",
			cfg:            DefaultChunkerConfig(),
			expectedChunks: nil,
		},
		{
			name: "Single sentence fits",
			text: "Influenza spreads fast.",
			cfg: ChunkerConfig{
				MaxTokens:     10,
				OverlapTokens: 0,
			},
			expectedChunks: []string{"Influenza spreads fast."},
		},
		{
			name: "Two sentences fit in one chunk",
			text: "Hello world. How are you?",
			cfg: ChunkerConfig{
				MaxTokens:     10,
				OverlapTokens: 0,
			},
			expectedChunks: []string{"Hello world. How are you?"},
		},
		{
			name: "Split by sentence without overlap",
			text: "First sentence. Second sentence.",
			cfg: ChunkerConfig{
				// "First sentence." encodes to 3 tokens: [First][ sentence][.]
				MaxTokens:     3,
				OverlapTokens: 0,
			},
			expectedChunks: []string{
				"First sentence.",
				"Second sentence.",
			},
		},
		{
			name: "Split by sentence with overlap",
			text: "Sentence one. Sentence two. Sentence three.",
			cfg: ChunkerConfig{
				// Two 3-token sentences per chunk, one sentence of overlap.
				MaxTokens:     6,
				OverlapTokens: 3,
			},
			expectedChunks: []string{
				"Sentence one. Sentence two.",
				"Sentence two. Sentence three.",
			},
		},
		{
			name: "Long sentence forced split",
			text: "One two three four five six.",
			cfg: ChunkerConfig{
				MaxTokens:     3,
				OverlapTokens: 0,
			},
			// cl100k_base: [One][ two][ three] | [ four][ five][ six] | [.]
			expectedChunks: []string{
				"One two three",
				"four five six",
				".",
			},
		},
		{
			name: "Cyrillic text",
			text: "Привет мир. Как твои дела?",
			cfg: ChunkerConfig{
				MaxTokens:     10,
				OverlapTokens: 0,
			},
			expectedChunks: []string{
				"Привет мир.",
				"Как твои дела?",
			},
		},
		{
			name: "CJK text",
			text: "你好世界。这是一个测试。",
			cfg: ChunkerConfig{
				MaxTokens:     20,
				OverlapTokens: 0,
			},
			expectedChunks: []string{
				"你好世界。 这是一个测试。",
			},
		},
		{
			name: "Paragraphs merge after soft-wrap removal",
			text: "Para one.\n\nPara two.",
			cfg: ChunkerConfig{
				MaxTokens:     10,
				OverlapTokens: 0,
			},
			expectedChunks: []string{
				"Para one. Para two.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkText(tt.text, tt.cfg)

			if len(chunks) != len(tt.expectedChunks) {
				t.Errorf("Expected %d chunks, got %d", len(tt.expectedChunks), len(chunks))
				for i, c := range chunks {
					t.Logf("Chunk %d: %q (Tokens: %d)", i, c.Text, c.TokenSize)
				}
				return
			}

			for i, chunk := range chunks {
				if chunk.Text != tt.expectedChunks[i] {
					t.Errorf("Chunk %d mismatch.\nExpected: %q\nGot:      %q", i, tt.expectedChunks[i], chunk.Text)
				}
			}
		})
	}
}

func TestCountTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Hello", 1},
		{"Hello world", 2},
		// Punctuation counts: [Hello][,][ world][!] = 4
		{"Hello, world!", 4},
		{"", 0},
	}

	for _, tt := range tests {
		got := countTokens(tt.text)
		if got != tt.want {
			t.Errorf("countTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Hello world. How are you? I am fine."
	sentences := splitSentences(text)

	expected := []string{
		"Hello world.",
		"How are you?",
		"I am fine.",
	}

	if len(sentences) != len(expected) {
		t.Fatalf("Expected %d sentences, got %d", len(expected), len(sentences))
	}

	for i, s := range sentences {
		if s != expected[i] {
			t.Errorf("Sentence %d mismatch. Got %q, want %q", i, s, expected[i])
		}
	}
}
