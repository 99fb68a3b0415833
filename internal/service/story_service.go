package service

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	storyMarkdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	storySanitizer = bluemonday.UGCPolicy()
)

// defaultStoryMarkdown 是首次进入时展示的引导故事，每个自然日最多展示一次。
const defaultStoryMarkdown = `# Welcome, Magnet

Your field responds to **rhythm**, not intensity.

- **Night Check-in** — pick tonight's track, set your felt-state, and lock a
  single claim word from the meditation.
- **Morning Habits** — anchor the charge with your morning ritual.

Every check-in grows your streak, plants a Star Seed, and charges the orb.
Claim both check-ins in one day to open the portal bonus.

*The Magnet — I become the frequency of what I desire.*
`

// StoryService 负责引导故事的内容渲染。展示与否由引擎的日界闸门决定。
type StoryService struct {
	markdown string
}

// NewStoryService 构造 StoryService，content 为空时使用内置故事。
func NewStoryService(content string) *StoryService {
	if content == "" {
		content = defaultStoryMarkdown
	}
	return &StoryService{markdown: content}
}

// RenderHTML 将故事 Markdown 渲染为净化后的 HTML。
func (s *StoryService) RenderHTML() (string, error) {
	var buf bytes.Buffer
	if err := storyMarkdownEngine.Convert([]byte(s.markdown), &buf); err != nil {
		return "", fmt.Errorf("render story markdown: %w", err)
	}
	return storySanitizer.Sanitize(buf.String()), nil
}
