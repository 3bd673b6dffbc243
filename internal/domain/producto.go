package domain

import (
	"time"
)

// Producto representa un ítem del inventario de bodega (unidad de stock).
// El inventario de productos es independiente del subsistema de préstamos:
// los préstamos registran herramientas por nombre libre, no productos.
type Producto struct {
	ID               int64     `json:"id"`
	Codigo           string    `json:"codigo"` // Código único del producto
	Nombre           string    `json:"nombre"`
	Cantidad         int       `json:"cantidad"` // Cantidad actual en stock, nunca negativa
	UnidadMedida     string    `json:"unidadMedida"`
	Clasificacion    string    `json:"clasificacion"`
	Subclasificacion string    `json:"subclasificacion"`
	UbicacionEstante string    `json:"ubicacionEstante"`
	FechaRegistro    time.Time `json:"fechaRegistro"` // Fecha de registro o última actualización
}

// ProductoFiltro define los parámetros de búsqueda del listado de productos.
type ProductoFiltro struct {
	Busqueda         string // Coincidencia parcial sobre código o nombre
	Clasificacion    string
	Subclasificacion string
	Estante          string
}

// ActualizacionProducto es el payload de actualización parcial: solo los
// campos no nulos se aplican sobre el producto existente.
type ActualizacionProducto struct {
	Codigo           *string `json:"codigo"`
	Nombre           *string `json:"nombre"`
	Cantidad         *int    `json:"cantidad"`
	UnidadMedida     *string `json:"unidadMedida"`
	Clasificacion    *string `json:"clasificacion"`
	Subclasificacion *string `json:"subclasificacion"`
	UbicacionEstante *string `json:"ubicacionEstante"`
}

// TipoMovimiento identifica la dirección de un ajuste de stock.
type TipoMovimiento string

const (
	MovimientoEntrada TipoMovimiento = "entrada"
	MovimientoSalida  TipoMovimiento = "salida"
)

// EsValido indica si el tipo de movimiento es uno de los permitidos.
func (t TipoMovimiento) EsValido() bool {
	return t == MovimientoEntrada || t == MovimientoSalida
}

// AjusteStock es el payload de la operación de entrada/salida de stock.
type AjusteStock struct {
	Tipo     TipoMovimiento `json:"tipo"`
	Cantidad int            `json:"cantidad"`
	Motivo   string         `json:"motivo"`
}

// ConteoClasificacion agrupa la cantidad de productos por clasificación.
type ConteoClasificacion struct {
	Clasificacion string `json:"clasificacion"`
	Cantidad      int    `json:"cantidad"`
}

// StockBajo lista los productos con menos de cinco unidades en stock.
type StockBajo struct {
	Cantidad  int        `json:"cantidad"`
	Productos []Producto `json:"productos"`
}

// EstadisticasInventario agrega los totales del inventario de productos.
type EstadisticasInventario struct {
	TotalProductos            int                   `json:"totalProductos"`
	TotalStock                int                   `json:"totalStock"`
	ProductosPorClasificacion []ConteoClasificacion `json:"productosPorClasificacion"`
	StockBajo                 StockBajo             `json:"stockBajo"`
}
