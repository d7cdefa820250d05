package tools

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Description declares a tool exposed to an engine and the built-in handler behind it.
type Description struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Handler     string            `yaml:"handler"`
	Properties  map[string]string `yaml:"properties"`
	Required    []string          `yaml:"required"`
}

// Catalog is the set of tool descriptions a registry is built from.
type Catalog struct {
	Tools []Description `yaml:"tools"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file. An empty path yields the embedded catalog.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes catalog YAML.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return catalog, nil
}

// Build binds each description to its handler. Descriptions that cannot be bound are
// logged and skipped so one bad entry does not take the rest down.
func (c Catalog) Build(handlers []Tool, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Tool, len(handlers))
	for _, handler := range handlers {
		byName[handler.Name()] = handler
	}

	reg := NewRegistry()
	if len(c.Tools) == 0 {
		logger.Warn("no tool descriptions provided, registry is empty")
		return reg
	}
	for _, desc := range c.Tools {
		tool, err := bind(desc, byName)
		if err != nil {
			logger.Error("failed to create tool from description", zap.String("tool", desc.Name), zap.Error(err))
			continue
		}
		if _, exists := reg.tools[tool.Name()]; exists {
			logger.Warn("duplicate tool description, keeping the last one", zap.String("tool", tool.Name()))
		}
		reg.tools[tool.Name()] = tool
		logger.Debug("created tool", zap.String("tool", tool.Name()), zap.String("handler", desc.Handler))
	}
	return reg
}

func bind(desc Description, handlers map[string]Tool) (Tool, error) {
	if strings.TrimSpace(desc.Name) == "" {
		return nil, errors.New("tool name is empty")
	}
	if strings.TrimSpace(desc.Handler) == "" {
		return nil, errors.New("tool has no handler defined")
	}
	handler, ok := handlers[desc.Handler]
	if !ok {
		return nil, fmt.Errorf("%w: handler %s", ErrUnknownTool, desc.Handler)
	}
	for _, key := range desc.Required {
		if len(desc.Properties) > 0 {
			if _, ok := desc.Properties[key]; !ok {
				return nil, fmt.Errorf("required parameter %s is not a declared property", key)
			}
		}
	}
	return &describedTool{desc: desc, handler: handler}, nil
}

// describedTool exposes a built-in handler under a catalog name and schema.
type describedTool struct {
	desc    Description
	handler Tool
}

func (d *describedTool) Name() string { return d.desc.Name }

func (d *describedTool) Description() string {
	if strings.TrimSpace(d.desc.Description) != "" {
		return d.desc.Description
	}
	return d.handler.Description()
}

func (d *describedTool) Schema() map[string]any {
	base := d.handler.Schema()
	if len(d.desc.Properties) == 0 {
		return base
	}
	baseProps, _ := base["properties"].(map[string]any)
	props := make(map[string]any, len(d.desc.Properties))
	for key, text := range d.desc.Properties {
		prop := map[string]any{"type": "string"}
		if existing, ok := baseProps[key].(map[string]any); ok {
			prop = make(map[string]any, len(existing)+1)
			for k, v := range existing {
				prop[k] = v
			}
		}
		prop["description"] = text
		props[key] = prop
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(d.desc.Required) > 0 {
		schema["required"] = append([]string(nil), d.desc.Required...)
	}
	return schema
}

func (d *describedTool) Execute(ctx context.Context, params Params, meta Meta) (Result, error) {
	if err := params.Require(d.desc.Required...); err != nil {
		return Result{}, err
	}
	res, err := d.handler.Execute(ctx, params, meta)
	if err != nil {
		return Result{}, err
	}
	res.ToolName = d.desc.Name
	return res, nil
}
