package prestamo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gobodega/internal/api/prestamo"
	"gobodega/internal/api/respond"
	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
)

// MockPrestamoService implementa la interfaz PrestamoService para los tests.
type MockPrestamoService struct {
	mock.Mock
}

func (m *MockPrestamoService) CrearPrestamo(ctx context.Context, nuevo domain.NuevoPrestamo) (domain.Prestamo, error) {
	args := m.Called(ctx, nuevo)
	return args.Get(0).(domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoService) ObtenerPrestamos(ctx context.Context, filtro domain.PrestamoFiltro) ([]domain.Prestamo, error) {
	args := m.Called(ctx, filtro)
	return args.Get(0).([]domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoService) ObtenerPrestamoPorID(ctx context.Context, id int64) (domain.Prestamo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Prestamo), args.Error(1)
}

func (m *MockPrestamoService) ActualizarDevolucion(ctx context.Context, id int64, devoluciones []domain.DevolucionItem, cerrar bool) (domain.Prestamo, string, error) {
	args := m.Called(ctx, id, devoluciones, cerrar)
	return args.Get(0).(domain.Prestamo), args.String(1), args.Error(2)
}

func (m *MockPrestamoService) ReporteMorosos(ctx context.Context) ([]domain.ReporteMoroso, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ReporteMoroso), args.Error(1)
}

func (m *MockPrestamoService) Estadisticas(ctx context.Context, fechaInicio, fechaFin *time.Time) (domain.EstadisticasPrestamos, error) {
	args := m.Called(ctx, fechaInicio, fechaFin)
	return args.Get(0).(domain.EstadisticasPrestamos), args.Error(1)
}

func nuevoHandler(svc *MockPrestamoService) *prestamo.Handler {
	log := logger.NewLogger("debug")
	return prestamo.NewHandler(svc, respond.NewWriter(log, false), log)
}

// mux arma un router mínimo para que PathValue resuelva en los tests.
func mux(h *prestamo.Handler) *http.ServeMux {
	m := http.NewServeMux()
	m.HandleFunc("POST /api/prestamos", h.Crear)
	m.HandleFunc("GET /api/prestamos/{id}", h.Obtener)
	m.HandleFunc("PUT /api/prestamos/{id}/devolucion", h.Devolucion)
	return m
}

func TestCrear_ValidacionDeCampos(t *testing.T) {
	mockSvc := new(MockPrestamoService)
	h := nuevoHandler(mockSvc)

	body := `{"trabajadorId": 0, "items": [{"nombre": "", "cantidadPrestada": 0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/prestamos", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var respuesta domain.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respuesta))
	assert.Contains(t, respuesta.Errores, "trabajadorId")
	assert.Contains(t, respuesta.Errores, "items[0].nombre")
	assert.Contains(t, respuesta.Errores, "items[0].cantidadPrestada")
	mockSvc.AssertNotCalled(t, "CrearPrestamo")
}

func TestObtener_IDInvalido(t *testing.T) {
	mockSvc := new(MockPrestamoService)
	h := nuevoHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/prestamos/abc", nil)
	rec := httptest.NewRecorder()

	mux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var respuesta domain.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respuesta))
	assert.Equal(t, "El ID del préstamo debe ser un número positivo", respuesta.Mensaje)
}

func TestObtener_NoEncontrado(t *testing.T) {
	mockSvc := new(MockPrestamoService)
	h := nuevoHandler(mockSvc)

	mockSvc.On("ObtenerPrestamoPorID", mock.Anything, int64(8)).
		Return(domain.Prestamo{}, apperror.NewNotFoundError("Préstamo no encontrado"))

	req := httptest.NewRequest(http.MethodGet, "/api/prestamos/8", nil)
	rec := httptest.NewRecorder()

	mux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDevolucion_CierreIncompletoExponeItemsPendientes(t *testing.T) {
	mockSvc := new(MockPrestamoService)
	h := nuevoHandler(mockSvc)

	pendientes := []apperror.ItemPendiente{{ID: 11, Nombre: "Brocas", Pendiente: 2}}
	mockSvc.On("ActualizarDevolucion", mock.Anything, int64(5),
		[]domain.DevolucionItem{{ID: 10, CantidadDevuelta: 2}}, true).
		Return(domain.Prestamo{}, "", apperror.NewDevolucionIncompletaError(pendientes))

	body := `{"items": [{"id": 10, "cantidadDevuelta": 2}], "cerrarPrestamo": true}`
	req := httptest.NewRequest(http.MethodPut, "/api/prestamos/5/devolucion", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var respuesta struct {
		Mensaje         string                   `json:"mensaje"`
		ItemsPendientes []apperror.ItemPendiente `json:"itemsPendientes"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respuesta))
	assert.Contains(t, respuesta.Mensaje, "ítems pendientes de devolver")
	assert.Equal(t, pendientes, respuesta.ItemsPendientes)
}

func TestDevolucion_Exitosa(t *testing.T) {
	mockSvc := new(MockPrestamoService)
	h := nuevoHandler(mockSvc)

	cerrado := domain.Prestamo{ID: 5, Estado: domain.EstadoCompletado}
	mockSvc.On("ActualizarDevolucion", mock.Anything, int64(5),
		[]domain.DevolucionItem{{ID: 10, CantidadDevuelta: 2}}, true).
		Return(cerrado, "Préstamo cerrado correctamente", nil)

	body := `{"items": [{"id": 10, "cantidadDevuelta": 2}], "cerrarPrestamo": true}`
	req := httptest.NewRequest(http.MethodPut, "/api/prestamos/5/devolucion", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var respuesta struct {
		Mensaje  string          `json:"mensaje"`
		Prestamo domain.Prestamo `json:"prestamo"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respuesta))
	assert.Equal(t, "Préstamo cerrado correctamente", respuesta.Mensaje)
	assert.Equal(t, domain.EstadoCompletado, respuesta.Prestamo.Estado)
}
