package store

import (
	"testing"
	"time"
)

func TestPoolSettingsWithEnv(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		env    map[string]string
		want   poolSettings
	}{
		{
			name:   "sqlite defaults",
			driver: DriverSQLite,
			want:   poolSettings{MaxOpen: 1, MaxIdle: 1, MaxLifetime: 5 * time.Minute},
		},
		{
			name:   "postgres defaults",
			driver: DriverPostgres,
			want:   poolSettings{MaxOpen: 10, MaxIdle: 5, MaxLifetime: 5 * time.Minute, MaxIdleTime: 5 * time.Minute},
		},
		{
			name:   "overrides",
			driver: DriverPostgres,
			env: map[string]string{
				maxOpenConnsEnvKey:    "20",
				maxIdleConnsEnvKey:    " 8 ",
				connMaxLifetimeEnvKey: "45s",
			},
			want: poolSettings{MaxOpen: 20, MaxIdle: 8, MaxLifetime: 45 * time.Second, MaxIdleTime: 5 * time.Minute},
		},
		{
			name:   "bare seconds",
			driver: DriverSQLite,
			env:    map[string]string{connMaxLifetimeEnvKey: "30"},
			want:   poolSettings{MaxOpen: 1, MaxIdle: 1, MaxLifetime: 30 * time.Second},
		},
		{
			name:   "invalid and non-positive ignored",
			driver: DriverSQLite,
			env: map[string]string{
				maxOpenConnsEnvKey:    "bad",
				maxIdleConnsEnvKey:    "0",
				connMaxLifetimeEnvKey: "-1s",
			},
			want: poolSettings{MaxOpen: 1, MaxIdle: 1, MaxLifetime: 5 * time.Minute},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaultPool(tt.driver).withEnv(func(key string) string { return tt.env[key] })
			if got != tt.want {
				t.Fatalf("pool = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPoolFromEnvReadsProcessEnv(t *testing.T) {
	t.Setenv(maxOpenConnsEnvKey, "3")
	if got := poolFromEnv(DriverSQLite).MaxOpen; got != 3 {
		t.Fatalf("expected MaxOpen 3 from env, got %d", got)
	}
}
