package prestamoservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
	"gobodega/internal/service/prestamoservice"
)

// MockPrestamoRepository implementa la interfaz PrestamoRepository para los tests.
type MockPrestamoRepository struct {
	mock.Mock
}

func (m *MockPrestamoRepository) Crear(ctx context.Context, nuevo domain.NuevoPrestamo) (domain.Prestamo, error) {
	args := m.Called(ctx, nuevo)
	return args.Get(0).(domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoRepository) FindByID(ctx context.Context, id int64) (domain.Prestamo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoRepository) FindAll(ctx context.Context, filtro domain.PrestamoFiltro) ([]domain.Prestamo, error) {
	args := m.Called(ctx, filtro)
	return args.Get(0).([]domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoRepository) FindByTrabajador(ctx context.Context, trabajadorID int64, estado domain.EstadoPrestamo) ([]domain.Prestamo, error) {
	args := m.Called(ctx, trabajadorID, estado)
	return args.Get(0).([]domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoRepository) ActualizarDevolucion(ctx context.Context, id int64, devoluciones []domain.DevolucionItem, cerrar bool) (domain.Prestamo, error) {
	args := m.Called(ctx, id, devoluciones, cerrar)
	return args.Get(0).(domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoRepository) Morosos(ctx context.Context) ([]domain.FilaMoroso, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FilaMoroso), args.Error(1)
}

func (m *MockPrestamoRepository) Estadisticas(ctx context.Context, fechaInicio, fechaFin *time.Time) (domain.EstadisticasPrestamos, error) {
	args := m.Called(ctx, fechaInicio, fechaFin)
	return args.Get(0).(domain.EstadisticasPrestamos), args.Error(1)
}

func nuevoServicio(repo *MockPrestamoRepository) *prestamoservice.Service {
	return prestamoservice.NewService(repo, 15, logger.NewLogger("debug"))
}

func TestCrearPrestamo_Exitoso(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	nuevo := domain.NuevoPrestamo{
		TrabajadorID: 3,
		Items: []domain.NuevoItemPrestamo{
			{Nombre: "Llave inglesa", CantidadPrestada: 1},
		},
	}
	esperado := domain.Prestamo{ID: 9, TrabajadorID: 3, Estado: domain.EstadoPendiente}
	mockRepo.On("Crear", mock.Anything, nuevo).Return(esperado, nil)

	prestamo, err := svc.CrearPrestamo(context.Background(), nuevo)

	assert.NoError(t, err)
	assert.Equal(t, esperado, prestamo)
	mockRepo.AssertExpectations(t)
}

func TestCrearPrestamo_SinItems(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	_, err := svc.CrearPrestamo(context.Background(), domain.NuevoPrestamo{TrabajadorID: 3})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "al menos un ítem")
	mockRepo.AssertNotCalled(t, "Crear")
}

func TestCrearPrestamo_CantidadInvalida(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	_, err := svc.CrearPrestamo(context.Background(), domain.NuevoPrestamo{
		TrabajadorID: 3,
		Items:        []domain.NuevoItemPrestamo{{Nombre: "Martillo", CantidadPrestada: 0}},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mayor a cero")
	mockRepo.AssertNotCalled(t, "Crear")
}

func TestObtenerPrestamos_MarcaAtrasados(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	antiguo := time.Now().UTC().AddDate(0, 0, -30)
	reciente := time.Now().UTC().AddDate(0, 0, -2)
	mockRepo.On("FindAll", mock.Anything, domain.PrestamoFiltro{}).Return([]domain.Prestamo{
		{ID: 1, Estado: domain.EstadoPendiente, FechaEntrega: antiguo},
		{ID: 2, Estado: domain.EstadoPendiente, FechaEntrega: reciente},
	}, nil)

	prestamos, err := svc.ObtenerPrestamos(context.Background(), domain.PrestamoFiltro{})

	assert.NoError(t, err)
	assert.Equal(t, domain.EstadoAtrasado, prestamos[0].Estado)
	assert.Equal(t, domain.EstadoPendiente, prestamos[1].Estado)
}

func TestObtenerPrestamos_EstadoInvalido(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	_, err := svc.ObtenerPrestamos(context.Background(), domain.PrestamoFiltro{Estado: "perdido"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Estado no válido")
	mockRepo.AssertNotCalled(t, "FindAll")
}

func TestActualizarDevolucion_MensajeSegunCierre(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	devoluciones := []domain.DevolucionItem{{ID: 10, CantidadDevuelta: 1}}
	mockRepo.On("ActualizarDevolucion", mock.Anything, int64(5), devoluciones, false).
		Return(domain.Prestamo{ID: 5, Estado: domain.EstadoEnProgreso}, nil)
	mockRepo.On("ActualizarDevolucion", mock.Anything, int64(5), devoluciones, true).
		Return(domain.Prestamo{ID: 5, Estado: domain.EstadoCompletado}, nil)

	_, mensaje, err := svc.ActualizarDevolucion(context.Background(), 5, devoluciones, false)
	assert.NoError(t, err)
	assert.Equal(t, prestamoservice.MensajeDevolucionRegistrada, mensaje)

	_, mensaje, err = svc.ActualizarDevolucion(context.Background(), 5, devoluciones, true)
	assert.NoError(t, err)
	assert.Equal(t, prestamoservice.MensajePrestamoCerrado, mensaje)
}

func TestActualizarDevolucion_SinItems(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	_, _, err := svc.ActualizarDevolucion(context.Background(), 5, nil, false)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "al menos un ítem")
	mockRepo.AssertNotCalled(t, "ActualizarDevolucion")
}

func TestActualizarDevolucion_PropagaErrorDeCierre(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	devoluciones := []domain.DevolucionItem{{ID: 10, CantidadDevuelta: 1}}
	pendientes := []apperror.ItemPendiente{{ID: 11, Nombre: "Brocas", Pendiente: 2}}
	mockRepo.On("ActualizarDevolucion", mock.Anything, int64(5), devoluciones, true).
		Return(domain.Prestamo{}, apperror.NewDevolucionIncompletaError(pendientes))

	_, _, err := svc.ActualizarDevolucion(context.Background(), 5, devoluciones, true)

	assert.Error(t, err)
	var incompleta *apperror.DevolucionIncompletaError
	assert.ErrorAs(t, err, &incompleta)
	assert.Equal(t, pendientes, incompleta.ItemsPendientes)
}

func TestReporteMorosos_AgrupaPorTrabajador(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	ana := domain.TrabajadorResumen{ID: 1, Codigo: "T01", Nombre: "Ana"}
	bruno := domain.TrabajadorResumen{ID: 2, Codigo: "T02", Nombre: "Bruno"}
	fechaVieja := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	fechaNueva := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	mockRepo.On("Morosos", mock.Anything).Return([]domain.FilaMoroso{
		{Trabajador: ana, Item: domain.ItemPendienteReporte{ID: 10, Nombre: "Taladro", Pendiente: 2, FechaPrestamo: fechaVieja}},
		{Trabajador: ana, Item: domain.ItemPendienteReporte{ID: 11, Nombre: "Brocas", Pendiente: 1, FechaPrestamo: fechaNueva}},
		{Trabajador: bruno, Item: domain.ItemPendienteReporte{ID: 12, Nombre: "Pala", Pendiente: 3, FechaPrestamo: fechaNueva}},
	}, nil)

	reporte, err := svc.ReporteMorosos(context.Background())

	assert.NoError(t, err)
	assert.Len(t, reporte, 2)

	assert.Equal(t, ana, reporte[0].Trabajador)
	assert.Len(t, reporte[0].ItemsPendientes, 2)
	assert.Equal(t, 3, reporte[0].TotalPendiente)
	assert.Equal(t, fechaVieja, reporte[0].FechaPrestamoMasAntiguo)

	assert.Equal(t, bruno, reporte[1].Trabajador)
	assert.Equal(t, 3, reporte[1].TotalPendiente)
	assert.Equal(t, fechaNueva, reporte[1].FechaPrestamoMasAntiguo)
}

func TestReporteMorosos_Vacio(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	mockRepo.On("Morosos", mock.Anything).Return([]domain.FilaMoroso{}, nil)

	reporte, err := svc.ReporteMorosos(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, reporte)
	assert.Empty(t, reporte)
}

func TestEstadisticas_EcoDelRango(t *testing.T) {
	mockRepo := new(MockPrestamoRepository)
	svc := nuevoServicio(mockRepo)

	inicio := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	mockRepo.On("Estadisticas", mock.Anything, &inicio, &fin).
		Return(domain.EstadisticasPrestamos{}, nil)

	stats, err := svc.Estadisticas(context.Background(), &inicio, &fin)

	assert.NoError(t, err)
	assert.Equal(t, "2024-01-01", stats.RangoFechas.FechaInicio)
	assert.Equal(t, "2024-01-31", stats.RangoFechas.FechaFin)
}
