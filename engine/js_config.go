package engine

// JSOption configures the JavaScript compiler.
type JSOption func(*jsConfig)

type jsConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSWithCache wires a ProgramCache into the compiler.
func JSWithCache(cache ProgramCache) JSOption {
	return func(cfg *jsConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctions exposes the registry's functions to compiled programs.
func JSWithFunctions(registry *FunctionRegistry) JSOption {
	return func(cfg *jsConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSOptions(opts []JSOption) jsConfig {
	cfg := jsConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
