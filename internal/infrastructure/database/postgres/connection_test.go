package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/HexaTopo/internal/config"
)

func TestBuildDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "reader",
		Password: "p@ss:word",
		DBName:   "hexatopo",
		SSLMode:  "require",
	}

	dsn := buildDSN(cfg)

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "/hexatopo")
	assert.Contains(t, dsn, "sslmode=require")
	// Credentials with reserved characters survive escaping.
	assert.Contains(t, dsn, "reader:")
	assert.NotContains(t, dsn, "p@ss:word@db.internal")
}

func TestBuildDSNWithoutSSLMode(t *testing.T) {
	dsn := buildDSN(config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", DBName: "d",
	})
	assert.NotContains(t, dsn, "sslmode")
}
