// Package schemas validates backend responses against JSON schemas embedded in the binary.
//
// The services package checks every payload it decodes so a backend contract change shows
// up as a validation error naming the schema, rather than as zero values in the UI.
package schemas

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schema names
const (
	Envelope          = "envelope"
	CSRF              = "csrf"
	Login             = "login"
	User              = "user"
	UserList          = "user_list"
	Article           = "article"
	ArticleList       = "article_list"
	ArticlePage       = "article_page"
	NamedResource     = "named_resource"
	NamedResourceList = "named_resource_list"
	MessageList       = "message_list"
	RegistrantList    = "registrant_list"
	ActivityLogPage   = "activity_log_page"
	DashboardStats    = "dashboard_stats"
)

// base url the embedded documents are registered under, so relative $refs resolve between them
const baseURL = "https://schemas.pondok-digital.id/portal/"

//go:embed json/*.json
var files embed.FS

// compiled schemas are cached by name. The compiler is not safe for concurrent use so
// compilation happens under the write lock.
var (
	compiler   *jsonschema.Compiler
	cache      = map[string]*jsonschema.Schema{}
	cacheMutex sync.RWMutex
)

func schemaURL(name string) string {
	return baseURL + name + ".json"
}

// Names lists the embedded schemas
func Names() []string {
	entries, err := fs.ReadDir(files, "json")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

func newCompiler() (*jsonschema.Compiler, error) {
	c := jsonschema.NewCompiler()

	entries, err := fs.ReadDir(files, "json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schemas: %w", err)
	}
	for _, e := range entries {
		data, err := files.ReadFile(path.Join("json", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", e.Name(), err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("schema %s is not valid JSON: %w", e.Name(), err)
		}
		if err := c.AddResource(baseURL+e.Name(), doc); err != nil {
			return nil, fmt.Errorf("adding schema %s: %w", e.Name(), err)
		}
	}
	return c, nil
}

// Get returns the compiled schema, compiling it on first use
func Get(name string) (*jsonschema.Schema, error) {
	cacheMutex.RLock()
	sch, ok := cache[name]
	cacheMutex.RUnlock()
	if ok {
		return sch, nil
	}

	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if sch, ok := cache[name]; ok {
		return sch, nil
	}
	if _, err := fs.Stat(files, path.Join("json", name+".json")); err != nil {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	if compiler == nil {
		c, err := newCompiler()
		if err != nil {
			return nil, err
		}
		compiler = c
	}

	sch, err := compiler.Compile(schemaURL(name))
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	cache[name] = sch
	return sch, nil
}

// Validate checks raw JSON against the named schema
func Validate(name string, raw []byte) error {
	sch, err := Get(name)
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", name, err)
	}
	return nil
}
