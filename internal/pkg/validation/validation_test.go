package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gobodega/internal/pkg/validation"
)

func TestRequerido(t *testing.T) {
	v := validation.Nuevo()
	v.Requerido("codigo", "  ", "El código es obligatorio")
	v.Requerido("nombre", "Taladro", "El nombre es obligatorio")

	assert.True(t, v.TieneErrores())
	assert.Equal(t, map[string]string{"codigo": "El código es obligatorio"}, v.Errores())
}

func TestPrimerErrorPorCampoGana(t *testing.T) {
	v := validation.Nuevo()
	v.Campo("cantidad", "primera regla")
	v.Campo("cantidad", "segunda regla")

	assert.Equal(t, "primera regla", v.Errores()["cantidad"])
}

func TestFechaOpcional(t *testing.T) {
	v := validation.Nuevo()

	assert.Nil(t, v.FechaOpcional("fechaInicio", "", "inválida"))
	assert.False(t, v.TieneErrores())

	fecha := v.FechaOpcional("fechaInicio", "2024-03-10", "inválida")
	assert.NotNil(t, fecha)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *fecha)

	assert.Nil(t, v.FechaOpcional("fechaFin", "10/03/2024", "inválida"))
	assert.True(t, v.TieneErrores())
	assert.Equal(t, "inválida", v.Errores()["fechaFin"])
}

func TestEnumOpcional(t *testing.T) {
	v := validation.Nuevo()
	permitidos := []string{"entrada", "salida"}

	v.EnumOpcional("tipo", "", permitidos, "no válido")
	assert.False(t, v.TieneErrores())

	v.EnumOpcional("tipo", "salida", permitidos, "no válido")
	assert.False(t, v.TieneErrores())

	v.EnumOpcional("tipo", "transferencia", permitidos, "no válido")
	assert.True(t, v.TieneErrores())
}

func TestCampoIndice(t *testing.T) {
	v := validation.Nuevo()
	v.CampoIndice("items", 2, "nombre", "obligatorio")

	assert.Equal(t, "obligatorio", v.Errores()["items[2].nombre"])
}
