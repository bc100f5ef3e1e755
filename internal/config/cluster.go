package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/odour.report/internal/odour"
)

// DefaultConfigPath is the path to the canonical clustering defaults file.
const DefaultConfigPath = "config/cluster.defaults.json"

// ClusterConfig holds the pipeline and upload settings. Every field is
// optional; the Get* accessors fall back to the built-in defaults.
type ClusterConfig struct {
	// Group count slider
	DefaultK *int `json:"default_k,omitempty"`
	MinK     *int `json:"min_k,omitempty"`
	MaxK     *int `json:"max_k,omitempty"`

	// Clustering
	Seed    *uint64 `json:"seed,omitempty"`
	NInit   *int    `json:"n_init,omitempty"`
	MaxIter *int    `json:"max_iter,omitempty"`

	// Input
	HeaderSkip     *int   `json:"header_skip,omitempty"`
	MaxUploadBytes *int64 `json:"max_upload_bytes,omitempty"`

	// Display
	PreviewRows *int `json:"preview_rows,omitempty"`
}

func ptrInt(v int) *int { return &v }

// EmptyClusterConfig returns a ClusterConfig with all fields unset.
func EmptyClusterConfig() *ClusterConfig {
	return &ClusterConfig{}
}

// LoadClusterConfig loads a ClusterConfig from a JSON file. Omitted fields
// keep their defaults, so partial files are fine.
func LoadClusterConfig(path string) (*ClusterConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyClusterConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics on failure;
// intended for test setup.
func MustLoadDefaultConfig() *ClusterConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadClusterConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable together.
func (c *ClusterConfig) Validate() error {
	minK, maxK, defK := c.GetMinK(), c.GetMaxK(), c.GetDefaultK()
	if minK < 1 {
		return fmt.Errorf("min_k must be at least 1, got %d", minK)
	}
	if maxK > odour.PaletteSize {
		return fmt.Errorf("max_k must not exceed the %d palette colors, got %d", odour.PaletteSize, maxK)
	}
	if minK > maxK {
		return fmt.Errorf("min_k (%d) must not exceed max_k (%d)", minK, maxK)
	}
	if defK < minK || defK > maxK {
		return fmt.Errorf("default_k must be within [%d, %d], got %d", minK, maxK, defK)
	}

	if c.HeaderSkip != nil && *c.HeaderSkip < 0 {
		return fmt.Errorf("header_skip must be non-negative, got %d", *c.HeaderSkip)
	}
	if c.NInit != nil && *c.NInit < 1 {
		return fmt.Errorf("n_init must be positive, got %d", *c.NInit)
	}
	if c.MaxIter != nil && *c.MaxIter < 1 {
		return fmt.Errorf("max_iter must be positive, got %d", *c.MaxIter)
	}
	if c.MaxUploadBytes != nil && *c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", *c.MaxUploadBytes)
	}
	if c.PreviewRows != nil && *c.PreviewRows < 0 {
		return fmt.Errorf("preview_rows must be non-negative, got %d", *c.PreviewRows)
	}
	return nil
}

// GetDefaultK returns the initial slider value.
func (c *ClusterConfig) GetDefaultK() int {
	if c.DefaultK == nil {
		return odour.DefaultK
	}
	return *c.DefaultK
}

// GetMinK returns the smallest selectable group count.
func (c *ClusterConfig) GetMinK() int {
	if c.MinK == nil {
		return 2
	}
	return *c.MinK
}

// GetMaxK returns the largest selectable group count.
func (c *ClusterConfig) GetMaxK() int {
	if c.MaxK == nil {
		return odour.PaletteSize
	}
	return *c.MaxK
}

// GetSeed returns the k-means seed.
func (c *ClusterConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return odour.DefaultSeed
	}
	return *c.Seed
}

// GetNInit returns the number of k-means seedings per run.
func (c *ClusterConfig) GetNInit() int {
	if c.NInit == nil {
		return odour.DefaultNInit
	}
	return *c.NInit
}

// GetMaxIter returns the Lloyd iteration bound.
func (c *ClusterConfig) GetMaxIter() int {
	if c.MaxIter == nil {
		return odour.DefaultMaxIter
	}
	return *c.MaxIter
}

// GetHeaderSkip returns the number of title rows above the header row.
func (c *ClusterConfig) GetHeaderSkip() int {
	if c.HeaderSkip == nil {
		return odour.DefaultHeaderSkip
	}
	return *c.HeaderSkip
}

// GetMaxUploadBytes returns the upload size limit.
func (c *ClusterConfig) GetMaxUploadBytes() int64 {
	if c.MaxUploadBytes == nil {
		return 32 << 20
	}
	return *c.MaxUploadBytes
}

// GetPreviewRows returns how many validated rows the upload page previews.
func (c *ClusterConfig) GetPreviewRows() int {
	if c.PreviewRows == nil {
		return 5
	}
	return *c.PreviewRows
}

// CheckK reports whether k is selectable.
func (c *ClusterConfig) CheckK(k int) error {
	if k < c.GetMinK() || k > c.GetMaxK() {
		return fmt.Errorf("k must be within [%d, %d], got %d", c.GetMinK(), c.GetMaxK(), k)
	}
	return nil
}

// Params returns the pipeline parameters for a run with k groups.
func (c *ClusterConfig) Params(k int) odour.Params {
	return odour.Params{
		K:          k,
		Seed:       c.GetSeed(),
		HeaderSkip: c.GetHeaderSkip(),
		NInit:      c.GetNInit(),
		MaxIter:    c.GetMaxIter(),
	}
}
