package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/shinyyama/secondchances-backend/internal/config"
	"gorm.io/gorm"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "u", DBPassword: "p", DBName: "sc", DBPort: "3306"}
	tests := []struct {
		name     string
		host     string
		instance string
		want     string
	}{
		{"plain host", "db.internal", "", "u:p@tcp(db.internal:3306)/sc?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"wrapped tcp", "tcp(10.0.0.1:3307)", "", "u:p@tcp(10.0.0.1:3307)/sc?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"socket path", "/var/run/mysqld.sock", "", "u:p@unix(/var/run/mysqld.sock)/sc?charset=utf8mb4&parseTime=True&loc=UTC"},
		{"cloud sql", "ignored", "proj:region:inst", "u:p@unix(/cloudsql/proj:region:inst)/sc?charset=utf8mb4&parseTime=True&loc=UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.DBHost = tt.host
			cfg.InstanceConnectionName = tt.instance
			if got := BuildDSN(&cfg); got != tt.want {
				t.Fatalf("got=%s want=%s", got, tt.want)
			}
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"mysql 1062", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &gomysql.MySQLError{Number: 1146, Message: "no such table"}, false},
		{"sqlite text", errors.New("UNIQUE constraint failed: conversations.participant_a"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKey(tt.err); got != tt.want {
				t.Fatalf("got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(log.New(&buf, "", 0))
	query := func() (string, int64) { return "SELECT * FROM conversations", 0 }

	l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found was logged: %q", buf.String())
	}
	l.Trace(context.Background(), time.Now(), query, errors.New("connection refused"))
	if !bytes.Contains(buf.Bytes(), []byte("connection refused")) {
		t.Fatalf("error not logged: %q", buf.String())
	}
}
