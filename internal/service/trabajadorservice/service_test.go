package trabajadorservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
	"gobodega/internal/service/trabajadorservice"
)

// MockTrabajadorRepository implementa la interfaz TrabajadorRepository para los tests.
type MockTrabajadorRepository struct {
	mock.Mock
}

func (m *MockTrabajadorRepository) Crear(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error) {
	args := m.Called(ctx, trabajador)
	return args.Get(0).(domain.Trabajador), args.Error(1)
}

func (m *MockTrabajadorRepository) FindByID(ctx context.Context, id int64) (domain.Trabajador, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Trabajador), args.Error(1)
}

func (m *MockTrabajadorRepository) FindAll(ctx context.Context, filtro domain.TrabajadorFiltro) ([]domain.Trabajador, error) {
	args := m.Called(ctx, filtro)
	return args.Get(0).([]domain.Trabajador), args.Error(1)
}

func (m *MockTrabajadorRepository) Actualizar(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error) {
	args := m.Called(ctx, trabajador)
	return args.Get(0).(domain.Trabajador), args.Error(1)
}

func (m *MockTrabajadorRepository) Desactivar(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTrabajadorRepository) Estadisticas(ctx context.Context) (domain.EstadisticasTrabajadores, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.EstadisticasTrabajadores), args.Error(1)
}

func nuevoServicio(repo *MockTrabajadorRepository) *trabajadorservice.Service {
	return trabajadorservice.NewService(repo, logger.NewLogger("debug"))
}

func TestCrearTrabajador_Exitoso(t *testing.T) {
	mockRepo := new(MockTrabajadorRepository)
	svc := nuevoServicio(mockRepo)

	entrada := domain.Trabajador{Codigo: "T01", Nombre: "Ana Gómez"}
	activado := entrada
	activado.Activo = true
	esperado := activado
	esperado.ID = 1
	mockRepo.On("Crear", mock.Anything, activado).Return(esperado, nil)

	creado, err := svc.CrearTrabajador(context.Background(), entrada)

	assert.NoError(t, err)
	assert.True(t, creado.Activo)
	assert.Equal(t, int64(1), creado.ID)
	mockRepo.AssertExpectations(t)
}

func TestCrearTrabajador_CamposFaltantes(t *testing.T) {
	mockRepo := new(MockTrabajadorRepository)
	svc := nuevoServicio(mockRepo)

	_, err := svc.CrearTrabajador(context.Background(), domain.Trabajador{})

	assert.Error(t, err)
	var campos *apperror.CamposError
	assert.ErrorAs(t, err, &campos)
	assert.Contains(t, campos.Campos, "codigo")
	assert.Contains(t, campos.Campos, "nombre")
	mockRepo.AssertNotCalled(t, "Crear")
}

func TestDesactivarTrabajador_Exitoso(t *testing.T) {
	mockRepo := new(MockTrabajadorRepository)
	svc := nuevoServicio(mockRepo)

	mockRepo.On("Desactivar", mock.Anything, int64(3)).Return(nil)

	mensaje, err := svc.DesactivarTrabajador(context.Background(), 3)

	assert.NoError(t, err)
	assert.Equal(t, trabajadorservice.MensajeTrabajadorDesactivado, mensaje)
	mockRepo.AssertExpectations(t)
}

func TestDesactivarTrabajador_ConPrestamosAbiertos(t *testing.T) {
	mockRepo := new(MockTrabajadorRepository)
	svc := nuevoServicio(mockRepo)

	mockRepo.On("Desactivar", mock.Anything, int64(3)).
		Return(apperror.NewPrestamosActivosError(2))

	_, err := svc.DesactivarTrabajador(context.Background(), 3)

	assert.Error(t, err)
	var activos *apperror.PrestamosActivosError
	assert.ErrorAs(t, err, &activos)
	assert.Equal(t, 2, activos.Cantidad)
}

func TestActualizarTrabajador_AplicaSoloCamposPresentes(t *testing.T) {
	mockRepo := new(MockTrabajadorRepository)
	svc := nuevoServicio(mockRepo)

	existente := domain.Trabajador{ID: 5, Codigo: "T05", Nombre: "Bruno Díaz", Activo: true}
	mockRepo.On("FindByID", mock.Anything, int64(5)).Return(existente, nil)

	activo := false
	esperado := existente
	esperado.Activo = false
	mockRepo.On("Actualizar", mock.Anything, esperado).Return(esperado, nil)

	actualizado, err := svc.ActualizarTrabajador(context.Background(), 5, domain.ActualizacionTrabajador{Activo: &activo})

	assert.NoError(t, err)
	assert.False(t, actualizado.Activo)
	assert.Equal(t, existente.Nombre, actualizado.Nombre)
	mockRepo.AssertExpectations(t)
}

func TestObtenerTrabajadorPorID_NoEncontrado(t *testing.T) {
	mockRepo := new(MockTrabajadorRepository)
	svc := nuevoServicio(mockRepo)

	mockRepo.On("FindByID", mock.Anything, int64(99)).
		Return(domain.Trabajador{}, apperror.NewNotFoundError("Trabajador no encontrado"))

	_, err := svc.ObtenerTrabajadorPorID(context.Background(), 99)

	assert.Error(t, err)
	var noEncontrado *apperror.NotFoundError
	assert.ErrorAs(t, err, &noEncontrado)
}
