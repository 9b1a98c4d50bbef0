package backend

import (
	"context"
	"path/filepath"
	"testing"

	"orcamento/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "json", cfg: &config.Config{DataBackend: "json", SnapshotPath: "state.json"}, want: JSONBackend},
		{name: "sqlite", cfg: &config.Config{DataBackend: "sqlite", SQLiteDBPath: "db.sqlite"}, want: SQLiteBackend},
		{name: "memory", cfg: &config.Config{DataBackend: "memory"}, want: MemoryBackend},
		{name: "unknown", cfg: &config.Config{DataBackend: "sheets"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Type != tt.want {
				t.Errorf("Type = %s, want %s", got.Type, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "json with path", cfg: Config{Type: JSONBackend, SnapshotPath: "a.json"}},
		{name: "json without path", cfg: Config{Type: JSONBackend}, wantErr: true},
		{name: "sqlite with path", cfg: Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}},
		{name: "sqlite without path", cfg: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "invalid type", cfg: Config{Type: "sheets"}, wantErr: true},
		{name: "memory needs no path", cfg: Config{Type: MemoryBackend}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "json", cfg: Config{Type: JSONBackend, SnapshotPath: filepath.Join(dir, "state.json")}},
		{name: "sqlite", cfg: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "orcamento.db")}},
		{name: "memory without seed", cfg: Config{Type: MemoryBackend}},
		{name: "memory with missing seed", cfg: Config{Type: MemoryBackend, SnapshotPath: filepath.Join(dir, "seed.json")}},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			snap, err := res.Store.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(snap.Members) != 1 {
				t.Errorf("members = %d, want the default member", len(snap.Members))
			}
			if err := res.Cleanup(); err != nil {
				t.Errorf("Cleanup() error = %v", err)
			}
			if _, err := res.Store.Load(context.Background()); err == nil {
				t.Errorf("Load() after cleanup should fail")
			}
		})
	}
}

func TestFactory_CreateBackend_InvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected validation error")
	}
}
