package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, EliminarPagoSaldo, cfg.PoliticaEliminacionPago)
	assert.Equal(t, 10.0, cfg.TasaRefinanciacion)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Timezone)
}

func TestLoad_EnvOverridesAndPolicyNormalized(t *testing.T) {
	t.Setenv("PAGO_ELIMINACION_POLITICA", " COMPLETA ")
	t.Setenv("TASA_REFINANCIACION", "15.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EliminarPagoCompleta, cfg.PoliticaEliminacionPago)
	assert.Equal(t, 15.5, cfg.TasaRefinanciacion)
}

func TestLoad_UnknownPolicyFallsBackToSaldo(t *testing.T) {
	t.Setenv("PAGO_ELIMINACION_POLITICA", "borrar-todo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EliminarPagoSaldo, cfg.PoliticaEliminacionPago)
}

func TestOrigenes(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://a.example.com, ,https://b.example.com "}
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Origenes())
	assert.Empty(t, (&Config{}).Origenes())
}
