package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "printers", cfg.Queue.PrintersName)
	assert.Equal(t, 30, cfg.Billing.InvoiceDueDays)
	assert.Equal(t, 24*time.Hour, cfg.Queue.DedupeTTL)
	assert.True(t, cfg.Orders.AutoPrintKOT)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("BILLING_INVOICE_DUE_DAYS", "14")
	t.Setenv("ORDERS_AUTO_PRINT_KOT", "false")

	cfg := Load()

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 14, cfg.Billing.InvoiceDueDays)
	assert.False(t, cfg.Orders.AutoPrintKOT)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "n", Port: "5432", SSLMode: "disable", Timezone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", c.DSN())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
}
