package tenant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

// LoadError means the tenant configuration is unusable. The service must not
// start when it sees one.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load tenants from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type rawTenant struct {
	Bucket string `json:"bucket" yaml:"bucket"`
	Token  string `json:"token" yaml:"token"`
}

type tenantFile struct {
	Tenants map[string]rawTenant `yaml:"tenants"`
}

// Load builds the registry from the ALLOWED_DOMAINS JSON value, or from the
// tenants file when one is configured.
func Load(allowedDomains, tenantsFile string) (*Registry, error) {
	if strings.TrimSpace(tenantsFile) != "" {
		return LoadFile(tenantsFile)
	}
	if strings.TrimSpace(allowedDomains) == "" {
		return nil, &LoadError{Source: "ALLOWED_DOMAINS", Err: errors.New("no tenant configuration provided")}
	}
	reg, err := ParseJSON([]byte(allowedDomains))
	if err != nil {
		return nil, &LoadError{Source: "ALLOWED_DOMAINS", Err: err}
	}
	return reg, nil
}

// LoadFile reads a .json file in the ALLOWED_DOMAINS format or a YAML file
// with a top-level "tenants" mapping.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	var reg *Registry
	if strings.EqualFold(filepath.Ext(path), ".json") {
		reg, err = ParseJSON(raw)
	} else {
		reg, err = ParseYAML(raw)
	}
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return reg, nil
}

// ParseJSON parses {"<host>": {"bucket": "...", "token": "..."}}. A host
// appearing twice is an error rather than last-one-wins.
func ParseJSON(data []byte) (*Registry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("tenant config must be a JSON object")
	}

	var entries []domain.TenantEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		host, _ := tok.(string)

		var rt rawTenant
		if err := dec.Decode(&rt); err != nil {
			return nil, fmt.Errorf("tenant %q: %w", host, err)
		}
		entries = append(entries, domain.TenantEntry{TenantID: host, Bucket: rt.Bucket, Token: rt.Token})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after tenant config")
	}

	return New(entries)
}

// ParseYAML parses a tenants file. yaml.v3 rejects duplicate mapping keys.
func ParseYAML(data []byte) (*Registry, error) {
	var f tenantFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Tenants == nil {
		return nil, errors.New(`missing "tenants" mapping`)
	}

	hosts := make([]string, 0, len(f.Tenants))
	for h := range f.Tenants {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	entries := make([]domain.TenantEntry, 0, len(hosts))
	for _, h := range hosts {
		rt := f.Tenants[h]
		entries = append(entries, domain.TenantEntry{TenantID: h, Bucket: rt.Bucket, Token: rt.Token})
	}
	return New(entries)
}
