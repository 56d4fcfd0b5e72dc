package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// CachedTextGenerator wraps a TextGenerator and memoizes responses by prompt
// in a JSON file, so re-importing the same page costs no tokens.
// Cache hits report zero usage.
type CachedTextGenerator struct {
	realGen       TextGenerator
	cache         map[string]string
	cacheFilePath string
	log           *zap.Logger
	mu            sync.Mutex
}

// NewCachedTextGenerator loads the cache from cacheFilePath if it exists.
func NewCachedTextGenerator(realGen TextGenerator, cacheFilePath string, log *zap.Logger) (*CachedTextGenerator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &CachedTextGenerator{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
		log:           log,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("llm cache file not found, starting empty", zap.String("path", cacheFilePath))
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}
	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}
	return c, nil
}

// GenerateContent returns the cached response for prompt or asks the wrapped generator.
func (c *CachedTextGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	key := promptKey(prompt)

	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return ContentResponse{Content: cached}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = resp.Content
	if err := c.persistLocked(); err != nil {
		c.log.Warn("failed to persist llm cache", zap.Error(err))
	}
	return resp, nil
}

// Len reports the number of cached prompts.
func (c *CachedTextGenerator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *CachedTextGenerator) persistLocked() error {
	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	return os.WriteFile(c.cacheFilePath, data, 0644)
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
