// internal/platform/registry/tool_registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
)

// ToolRegistry gestiona el registro y construcción de herramientas.
// Implementa el patrón Registry + Factory: cada paquete de internal/tools
// se registra desde init() y la aplicación solo construye por nombre.
type ToolRegistry struct {
	mu        sync.RWMutex
	factories map[string]ToolFactory
	metadata  map[string]ports.ToolMetadata
}

// ToolFactory es una función que crea una instancia de Tool.
type ToolFactory func(cfg ports.ToolConfig, logger logx.Logger) (ports.Tool, error)

var (
	globalRegistry *ToolRegistry
	once           sync.Once
)

// Global retorna la instancia global del registry.
func Global() *ToolRegistry {
	once.Do(func() {
		globalRegistry = NewToolRegistry()
	})
	return globalRegistry
}

// NewToolRegistry crea un registry vacío.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		factories: make(map[string]ToolFactory),
		metadata:  make(map[string]ports.ToolMetadata),
	}
}

// Register registra una factory con su metadata.
func (r *ToolRegistry) Register(name string, factory ToolFactory, meta ports.ToolMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for tool %s", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("tool %s is already registered", name)
	}

	meta.Name = name
	r.factories[name] = factory
	r.metadata[name] = meta
	return nil
}

// MustRegister es Register para init(): un nombre duplicado es un bug de programación.
func (r *ToolRegistry) MustRegister(name string, factory ToolFactory, meta ports.ToolMetadata) {
	if err := r.Register(name, factory, meta); err != nil {
		panic(err)
	}
}

// Build construye una herramienta por nombre. Sin config se usa DefaultToolConfig.
func (r *ToolRegistry) Build(name string, cfg *ports.ToolConfig, logger logx.Logger) (ports.Tool, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}

	c := ports.DefaultToolConfig()
	if cfg != nil {
		c = *cfg
	}
	if logger == nil {
		logger = logx.NewNop()
	}

	return factory(c, logger.With("tool", name))
}

// BuildAll construye todas las herramientas registradas y habilitadas.
// Las herramientas sin entrada en configs se construyen con la config por defecto.
// Un error de construcción no detiene al resto; se retornan agregados.
func (r *ToolRegistry) BuildAll(configs map[string]ports.ToolConfig, logger logx.Logger) (map[string]ports.Tool, error) {
	tools := make(map[string]ports.Tool)
	var errs []error

	for _, name := range r.List() {
		var cfgPtr *ports.ToolConfig
		if cfg, ok := configs[name]; ok {
			if !cfg.Enabled {
				continue
			}
			cfgPtr = &cfg
		}

		tool, err := r.Build(name, cfgPtr, logger)
		if err != nil {
			errs = append(errs, fmt.Errorf("build tool %s: %w", name, err))
			continue
		}
		tools[name] = tool
	}

	for name := range configs {
		if !r.IsRegistered(name) {
			errs = append(errs, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name))
		}
	}

	if len(errs) > 0 {
		return tools, errors.Join(errs...)
	}
	return tools, nil
}

// List retorna los nombres registrados, ordenados por fase y luego por nombre.
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := r.metadata[names[i]].Stage.Step(), r.metadata[names[j]].Stage.Step()
		if si != sj {
			return si < sj
		}
		return names[i] < names[j]
	})
	return names
}

// GetMetadata retorna el metadata de una herramienta.
func (r *ToolRegistry) GetMetadata(name string) (ports.ToolMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// IsRegistered verifica si una herramienta está registrada.
func (r *ToolRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Clear elimina todas las herramientas registradas (útil para testing).
func (r *ToolRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]ToolFactory)
	r.metadata = make(map[string]ports.ToolMetadata)
}
