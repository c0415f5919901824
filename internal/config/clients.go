package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-jose/go-jose/v4"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"gopkg.in/yaml.v3"
)

type clientsFile struct {
	Clients []clientEntry `yaml:"clients"`
}

type clientEntry struct {
	ID           string `yaml:"client_id"`
	HashedSecret string `yaml:"hashed_secret"`
	ServiceID    string `yaml:"service_id"`
	Name         string `yaml:"name"`
	Disabled     bool   `yaml:"disabled"`
}

// LoadClients reads the static clients declared in the YAML file at path.
//
//	clients:
//	  - client_id: svc1
//	    hashed_secret: $2a$10$...
//	    service_id: https://svc1.example.com
func LoadClients(path string) ([]*goidc.Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the clients file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var file clientsFile
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not parse the clients file: %w", err)
	}

	seen := make(map[string]bool, len(file.Clients))
	clients := make([]*goidc.Client, 0, len(file.Clients))
	for i, entry := range file.Clients {
		if entry.ID == "" {
			return nil, fmt.Errorf("client at position %d has no client_id", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("client %s is declared more than once", entry.ID)
		}
		seen[entry.ID] = true

		clients = append(clients, &goidc.Client{
			ID:           entry.ID,
			HashedSecret: entry.HashedSecret,
			ServiceID:    entry.ServiceID,
			Name:         entry.Name,
			Disabled:     entry.Disabled,
		})
	}

	return clients, nil
}

// LoadJWKS reads the JSON Web Key Set used to verify JWT access tokens.
func LoadJWKS(path string) (jose.JSONWebKeySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("could not read the jwks file: %w", err)
	}

	var jwks jose.JSONWebKeySet
	if err := json.Unmarshal(data, &jwks); err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("could not parse the jwks file: %w", err)
	}

	return jwks, nil
}
