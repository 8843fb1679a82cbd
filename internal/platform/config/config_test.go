package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdmin = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

func TestFromEnv(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("REGISTRAR_ADMIN_ADDRESS", testAdmin)

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, BackendMemory, cfg.Registry.Store)
		assert.Equal(t, PayoutLedger, cfg.Registry.Payout)
		assert.Equal(t, "1", cfg.Registry.InitialFee.String())
		assert.Equal(t, testAdmin, cfg.Registry.Admin.String())
		assert.True(t, cfg.Registry.WithdrawRecipient.IsNil())
	})

	t.Run("requires an administrator", func(t *testing.T) {
		t.Setenv("REGISTRAR_ADMIN_ADDRESS", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REGISTRAR_ADMIN_ADDRESS is required")
	})

	t.Run("reports malformed values together", func(t *testing.T) {
		t.Setenv("REGISTRAR_ADMIN_ADDRESS", "not-an-address")
		t.Setenv("REGISTRAR_INITIAL_FEE", "one")
		t.Setenv("TOKEN_TTL", "soon")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REGISTRAR_ADMIN_ADDRESS")
		assert.Contains(t, err.Error(), "REGISTRAR_INITIAL_FEE")
		assert.Contains(t, err.Error(), "TOKEN_TTL")
	})

	t.Run("parses broker lists", func(t *testing.T) {
		t.Setenv("REGISTRAR_ADMIN_ADDRESS", testAdmin)
		t.Setenv("REGISTRAR_PAYOUT", "kafka")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	})
}

func TestValidate(t *testing.T) {
	t.Setenv("REGISTRAR_ADMIN_ADDRESS", testAdmin)
	base, err := FromEnv()
	require.NoError(t, err)
	valid := func() Server { return base }

	t.Run("postgres store needs a DSN", func(t *testing.T) {
		cfg := valid()
		cfg.Registry.Store = BackendPostgres
		assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")
	})

	t.Run("kafka payout needs brokers", func(t *testing.T) {
		cfg := valid()
		cfg.Registry.Payout = PayoutKafka
		cfg.Kafka.Brokers = nil
		assert.ErrorContains(t, cfg.Validate(), "KAFKA_BROKERS")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.Registry.Store = "sqlite"
		assert.ErrorContains(t, cfg.Validate(), "REGISTRAR_STORE")
	})

	t.Run("production refuses the development key", func(t *testing.T) {
		cfg := valid()
		cfg.Environment = "production"
		assert.ErrorContains(t, cfg.Validate(), "JWT_SIGNING_KEY")
	})
}
