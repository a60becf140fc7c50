package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ClientCache loads client configurations from a directory of YAML files
// and serves them from memory. Reloading a file replaces its entry.
type ClientCache struct {
	clientsDir string
	cache      map[string]*Client
	mu         sync.RWMutex
}

func NewClientCache(clientsDir string) *ClientCache {
	return &ClientCache{
		clientsDir: clientsDir,
		cache:      make(map[string]*Client),
	}
}

// Run loads every *.yml file in the clients directory. A missing directory
// is not an error; the service just monitors nothing.
func (cc *ClientCache) Run() error {
	if _, err := os.Stat(cc.clientsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.clientsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		slug := strings.TrimSuffix(filepath.Base(file), ".yml")

		client, err := cc.LoadClient(slug)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Client configuration loaded", "client", slug, "enabled", client.Settings.Enabled, "queries", len(client.SearchQueries()))
	}

	return nil
}

// LoadClient parses, validates and caches a single client configuration.
func (cc *ClientCache) LoadClient(slug string) (*Client, error) {
	configFile := filepath.Join(cc.clientsDir, slug+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var client Client
	if err := yaml.Unmarshal(data, &client); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	client.Slug = slug

	if err := cc.validate(&client); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[slug] = &client

	return &client, nil
}

func (cc *ClientCache) GetClient(slug string) (*Client, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	client, ok := cc.cache[slug]
	if !ok {
		return nil, fmt.Errorf("client config with slug '%s' not found", slug)
	}
	return client, nil
}

// GetClients returns every loaded client, sorted by slug.
func (cc *ClientCache) GetClients() []*Client {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	clients := make([]*Client, 0, len(cc.cache))
	for _, client := range cc.cache {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Slug < clients[j].Slug })
	return clients
}

// GetEnabledClients returns every enabled client, sorted by slug.
func (cc *ClientCache) GetEnabledClients() []*Client {
	clients := cc.GetClients()

	enabled := make([]*Client, 0, len(clients))
	for _, client := range clients {
		if client.Settings.Enabled {
			enabled = append(enabled, client)
		}
	}
	return enabled
}

func (cc *ClientCache) GetClientCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ClientCache) validate(client *Client) error {
	if client.Name == "" {
		return fmt.Errorf("client name is required")
	}

	for i, query := range client.Settings.Queries {
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("query at index %d is empty", i)
		}
	}

	for i, alias := range client.Aliases {
		if strings.TrimSpace(alias) == "" {
			return fmt.Errorf("alias at index %d is empty", i)
		}
	}

	return nil
}
