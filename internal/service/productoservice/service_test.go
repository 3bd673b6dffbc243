package productoservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
	"gobodega/internal/service/productoservice"
)

// MockProductoRepository implementa la interfaz ProductoRepository para los tests.
type MockProductoRepository struct {
	mock.Mock
}

func (m *MockProductoRepository) Crear(ctx context.Context, producto domain.Producto) (domain.Producto, error) {
	args := m.Called(ctx, producto)
	return args.Get(0).(domain.Producto), args.Error(1)
}

func (m *MockProductoRepository) FindByID(ctx context.Context, id int64) (domain.Producto, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Producto), args.Error(1)
}

func (m *MockProductoRepository) FindAll(ctx context.Context, filtro domain.ProductoFiltro) ([]domain.Producto, error) {
	args := m.Called(ctx, filtro)
	return args.Get(0).([]domain.Producto), args.Error(1)
}

func (m *MockProductoRepository) FindByEstante(ctx context.Context, estante string) ([]domain.Producto, error) {
	args := m.Called(ctx, estante)
	return args.Get(0).([]domain.Producto), args.Error(1)
}

func (m *MockProductoRepository) Actualizar(ctx context.Context, producto domain.Producto) (domain.Producto, error) {
	args := m.Called(ctx, producto)
	return args.Get(0).(domain.Producto), args.Error(1)
}

func (m *MockProductoRepository) Eliminar(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductoRepository) AjustarStock(ctx context.Context, id int64, ajuste domain.AjusteStock) (domain.Producto, error) {
	args := m.Called(ctx, id, ajuste)
	return args.Get(0).(domain.Producto), args.Error(1)
}

func (m *MockProductoRepository) Estadisticas(ctx context.Context) (domain.EstadisticasInventario, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.EstadisticasInventario), args.Error(1)
}

func nuevoServicio(repo *MockProductoRepository) *productoservice.Service {
	return productoservice.NewService(repo, logger.NewLogger("debug"))
}

func productoValido() domain.Producto {
	return domain.Producto{
		Codigo:        "HER-001",
		Nombre:        "Taladro percutor",
		Cantidad:      5,
		UnidadMedida:  "unidad",
		Clasificacion: "herramientas",
	}
}

func TestCrearProducto_Exitoso(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	producto := productoValido()
	esperado := producto
	esperado.ID = 1
	mockRepo.On("Crear", mock.Anything, producto).Return(esperado, nil)

	creado, err := svc.CrearProducto(context.Background(), producto)

	assert.NoError(t, err)
	assert.Equal(t, esperado, creado)
	mockRepo.AssertExpectations(t)
}

func TestCrearProducto_CamposFaltantes(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	_, err := svc.CrearProducto(context.Background(), domain.Producto{Nombre: "Sin código"})

	assert.Error(t, err)
	var campos *apperror.CamposError
	assert.ErrorAs(t, err, &campos)
	assert.Contains(t, campos.Campos, "codigo")
	assert.Contains(t, campos.Campos, "unidadMedida")
	mockRepo.AssertNotCalled(t, "Crear")
}

func TestAjustarStock_TipoInvalido(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	_, _, err := svc.AjustarStock(context.Background(), 1, domain.AjusteStock{Tipo: "transferencia", Cantidad: 1})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Tipo de operación no válido")
	mockRepo.AssertNotCalled(t, "AjustarStock")
}

func TestAjustarStock_CantidadNoPositiva(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	_, _, err := svc.AjustarStock(context.Background(), 1, domain.AjusteStock{Tipo: domain.MovimientoSalida, Cantidad: 0})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "número positivo")
	mockRepo.AssertNotCalled(t, "AjustarStock")
}

func TestAjustarStock_SalidaExitosa(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	ajuste := domain.AjusteStock{Tipo: domain.MovimientoSalida, Cantidad: 3}
	actualizado := productoValido()
	actualizado.ID = 1
	actualizado.Cantidad = 2
	mockRepo.On("AjustarStock", mock.Anything, int64(1), ajuste).Return(actualizado, nil)

	producto, mensaje, err := svc.AjustarStock(context.Background(), 1, ajuste)

	assert.NoError(t, err)
	assert.Equal(t, 2, producto.Cantidad)
	assert.Equal(t, "Stock actualizado correctamente (salida de 3 unidad)", mensaje)
}

func TestAjustarStock_StockInsuficiente(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	ajuste := domain.AjusteStock{Tipo: domain.MovimientoSalida, Cantidad: 5}
	mockRepo.On("AjustarStock", mock.Anything, int64(1), ajuste).
		Return(domain.Producto{}, apperror.NewStockInsuficienteError(2, 5))

	_, _, err := svc.AjustarStock(context.Background(), 1, ajuste)

	assert.Error(t, err)
	var insuficiente *apperror.StockInsuficienteError
	assert.ErrorAs(t, err, &insuficiente)
	assert.Equal(t, 2, insuficiente.Disponible)
	assert.Equal(t, 5, insuficiente.Solicitada)
}

func TestActualizarProducto_AplicaSoloCamposPresentes(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	existente := productoValido()
	existente.ID = 4
	mockRepo.On("FindByID", mock.Anything, int64(4)).Return(existente, nil)

	nuevoNombre := "Taladro inalámbrico"
	esperado := existente
	esperado.Nombre = nuevoNombre
	mockRepo.On("Actualizar", mock.Anything, esperado).Return(esperado, nil)

	actualizado, err := svc.ActualizarProducto(context.Background(), 4, domain.ActualizacionProducto{Nombre: &nuevoNombre})

	assert.NoError(t, err)
	assert.Equal(t, nuevoNombre, actualizado.Nombre)
	assert.Equal(t, existente.Codigo, actualizado.Codigo)
	mockRepo.AssertExpectations(t)
}

func TestObtenerProductosPorEstante_Vacio(t *testing.T) {
	mockRepo := new(MockProductoRepository)
	svc := nuevoServicio(mockRepo)

	mockRepo.On("FindByEstante", mock.Anything, "Z9").Return([]domain.Producto{}, nil)

	_, err := svc.ObtenerProductosPorEstante(context.Background(), "Z9")

	assert.Error(t, err)
	assert.Equal(t, "No se encontraron productos en el estante Z9", err.Error())
}
