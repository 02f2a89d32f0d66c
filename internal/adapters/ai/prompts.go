package ai

import (
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"xknowledge/pkg/log"
)

// DefaultPrompt asks for the analysis JSON object. The post text is
// appended after it.
const DefaultPrompt = `Analyze the following post and return strict JSON only, without Markdown fences.
Use this structure:
{
  "category": "string, the post's category (for example #AITools, #Programming, #Investing, #Lifestyle)",
  "summary": "string, the core point in at most 50 words",
  "tags": ["tag1", "tag2"]
}`

// PromptConfig holds the analysis prompts and reloads them when the file
// changes.
type PromptConfig struct {
	mu          sync.RWMutex
	system      string
	prompt      string
	filePath    string
	lastModTime time.Time
	stop        chan struct{}
	once        sync.Once
}

// rawPrompts represents the YAML structure.
type rawPrompts struct {
	Analysis struct {
		System string `yaml:"system"`
		Prompt string `yaml:"prompt"`
	} `yaml:"analysis"`
}

// DefaultPrompts returns a config that never reads a file.
func DefaultPrompts() *PromptConfig {
	return &PromptConfig{stop: make(chan struct{})}
}

// LoadPrompts loads prompt configuration from a YAML file.
// It starts a background goroutine for hot-reloading.
func LoadPrompts(filePath string) (*PromptConfig, error) {
	c := &PromptConfig{filePath: filePath, stop: make(chan struct{})}
	if err := c.reload(); err != nil {
		return nil, err
	}
	if info, err := os.Stat(filePath); err == nil {
		c.lastModTime = info.ModTime()
	}

	go c.watch(10 * time.Second)

	return c, nil
}

func (c *PromptConfig) reload() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	var raw rawPrompts
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = strings.TrimSpace(raw.Analysis.System)
	c.prompt = strings.TrimSpace(raw.Analysis.Prompt)
	return nil
}

// watch polls the file and reloads it when its modification time moves.
func (c *PromptConfig) watch(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.reloadIfChanged()
		}
	}
}

func (c *PromptConfig) reloadIfChanged() {
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if !info.ModTime().After(c.lastModTime) {
		return
	}
	if err := c.reload(); err != nil {
		log.GlobalWarn("prompt reload failed, keeping previous prompts", "file", c.filePath, "error", err)
	} else {
		log.GlobalInfo("prompts reloaded", "file", c.filePath)
	}
	c.lastModTime = info.ModTime()
}

// Close stops the watcher.
func (c *PromptConfig) Close() {
	c.once.Do(func() { close(c.stop) })
}

// System returns the system message, or "" (thread-safe).
func (c *PromptConfig) System() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.system
}

// Prompt returns the custom prompt, falling back to DefaultPrompt
// (thread-safe).
func (c *PromptConfig) Prompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.prompt == "" {
		return DefaultPrompt
	}
	return c.prompt
}
