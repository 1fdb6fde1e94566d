package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

const (
	rootModule     = "composer"
	nodesModule    = "composer.nodes"
	syncModule     = "composer.sync"
	pagesModule    = "composer.pages"
	statusModule   = "composer.status"
	editingModule  = "composer.editing"
	commandsPrefix = "composer.commands"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// NodesLogger scopes entries emitted while decoding and validating trees.
func NodesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, nodesModule)
}

// SyncLogger scopes entries emitted by the cross-locale sync engine.
func SyncLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, syncModule)
}

// PagesLogger scopes entries emitted by page persistence.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// StatusLogger scopes entries emitted by the translation status tracker.
func StatusLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, statusModule)
}

// EditingLogger scopes entries emitted by the editing service.
func EditingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, editingModule)
}

// CommandsLogger scopes entries for a named command handler.
func CommandsLogger(provider interfaces.LoggerProvider, name string) interfaces.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return ModuleLogger(provider, commandsPrefix)
	}
	return ModuleLogger(provider, commandsPrefix+"."+name)
}

// WithPage annotates a logger with page and locale identifiers. Empty values
// are skipped.
func WithPage(logger interfaces.Logger, pageID, locale string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(pageID); trimmed != "" {
		fields["page_id"] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields["locale"] = trimmed
	}
	return WithFields(logger, fields)
}

// WithFields attaches structured fields when the logger implements
// FieldsLogger. Other loggers are returned unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
