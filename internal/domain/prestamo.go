package domain

import (
	"fmt"
	"time"

	apperror "gobodega/internal/errors"
)

// EstadoPrestamo es el estado del ciclo de vida de un préstamo.
type EstadoPrestamo string

const (
	EstadoPendiente  EstadoPrestamo = "pendiente"
	EstadoEnProgreso EstadoPrestamo = "en_progreso"
	EstadoCompletado EstadoPrestamo = "completado"
	// EstadoAtrasado es un estado derivado: nunca se persiste, el servicio lo
	// calcula al leer préstamos abiertos con demasiados días transcurridos.
	EstadoAtrasado EstadoPrestamo = "atrasado"
)

// EstadosAbiertos son los estados no terminales de un préstamo persistido.
var EstadosAbiertos = []EstadoPrestamo{EstadoPendiente, EstadoEnProgreso}

// EstadosValidos lista los estados aceptados como filtro de búsqueda.
func EstadosValidos() []string {
	return []string{
		string(EstadoPendiente),
		string(EstadoEnProgreso),
		string(EstadoCompletado),
		string(EstadoAtrasado),
	}
}

// EsValido indica si el estado es uno de los conocidos.
func (e EstadoPrestamo) EsValido() bool {
	switch e {
	case EstadoPendiente, EstadoEnProgreso, EstadoCompletado, EstadoAtrasado:
		return true
	}
	return false
}

// ItemPrestamo es una línea de un préstamo: una herramienta identificada por
// nombre libre, con la cantidad prestada y la devuelta hasta el momento.
type ItemPrestamo struct {
	ID                int64  `json:"id"`
	Nombre            string `json:"nombre"`
	CantidadPrestada  int    `json:"cantidadPrestada"`
	CantidadDevuelta  int    `json:"cantidadDevuelta"`
	ComentarioDetalle string `json:"comentarioDetalle"`
	PrestamoID        int64  `json:"prestamoId"`
}

// Pendiente es la cantidad que falta devolver del ítem.
func (i ItemPrestamo) Pendiente() int {
	return i.CantidadPrestada - i.CantidadDevuelta
}

// DevolucionCompleta indica si el ítem fue devuelto en su totalidad.
func (i ItemPrestamo) DevolucionCompleta() bool {
	return i.CantidadDevuelta == i.CantidadPrestada
}

// Prestamo es el agregado principal: un registro de herramientas entregadas a
// un trabajador, compuesto por ítems, que progresa de pendiente a completado.
type Prestamo struct {
	ID                   int64             `json:"id"`
	TrabajadorID         int64             `json:"trabajadorId"`
	Trabajador           TrabajadorResumen `json:"trabajador"`
	FechaEntrega         time.Time         `json:"fechaEntrega"`
	FechaDevolucionFinal *time.Time        `json:"fechaDevolucionFinal"`
	Estado               EstadoPrestamo    `json:"estado"`
	Observaciones        string            `json:"observaciones"`
	Items                []ItemPrestamo    `json:"items"`
}

// NuevoItemPrestamo es una línea del payload de creación de préstamo.
type NuevoItemPrestamo struct {
	Nombre            string `json:"nombre"`
	CantidadPrestada  int    `json:"cantidadPrestada"`
	ComentarioDetalle string `json:"comentarioDetalle"`
}

// NuevoPrestamo es el payload de creación de préstamo.
type NuevoPrestamo struct {
	TrabajadorID  int64               `json:"trabajadorId"`
	Items         []NuevoItemPrestamo `json:"items"`
	Observaciones string              `json:"observaciones"`
}

// DevolucionItem es una entrada de la operación de devolución: fija la
// cantidad devuelta del ítem en un valor absoluto (no incremental).
type DevolucionItem struct {
	ID               int64 `json:"id"`
	CantidadDevuelta int   `json:"cantidadDevuelta"`
}

// PrestamoFiltro define los parámetros de búsqueda del listado de préstamos.
// El rango de fechas es semiabierto: [FechaInicio, FechaFin + 1 día).
type PrestamoFiltro struct {
	Estado       EstadoPrestamo
	TrabajadorID int64
	FechaInicio  *time.Time
	FechaFin     *time.Time
}

// EstaCerrado indica si el préstamo está en su estado terminal.
func (p *Prestamo) EstaCerrado() bool {
	return p.Estado == EstadoCompletado
}

// EsAbierto indica si el préstamo sigue sin cerrar.
func (p *Prestamo) EsAbierto() bool {
	return p.Estado == EstadoPendiente || p.Estado == EstadoEnProgreso
}

// EstadoEfectivo es el estado que se reporta al leer el préstamo: un préstamo
// abierto con más de diasAtraso días desde la entrega se informa atrasado.
// El estado persistido no cambia.
func (p *Prestamo) EstadoEfectivo(ahora time.Time, diasAtraso int) EstadoPrestamo {
	if p.EsAbierto() && diasAtraso > 0 && ahora.Sub(p.FechaEntrega) > time.Duration(diasAtraso)*24*time.Hour {
		return EstadoAtrasado
	}
	return p.Estado
}

// MarcarAtrasados aplica EstadoEfectivo sobre una lista de préstamos.
func MarcarAtrasados(prestamos []Prestamo, ahora time.Time, diasAtraso int) {
	for i := range prestamos {
		prestamos[i].Estado = prestamos[i].EstadoEfectivo(ahora, diasAtraso)
	}
}

// buscarItem resuelve un ítem por id dentro de este préstamo únicamente.
func (p *Prestamo) buscarItem(id int64) *ItemPrestamo {
	for i := range p.Items {
		if p.Items[i].ID == id {
			return &p.Items[i]
		}
	}
	return nil
}

// AplicarDevoluciones fija las cantidades devueltas de los ítems indicados.
// Valida todas las entradas antes de aplicar cambios, de modo que una entrada
// inválida no deja ningún ítem mutado. Las cantidades son valores absolutos:
// reenviar la misma cantidad es un no-op.
func (p *Prestamo) AplicarDevoluciones(devoluciones []DevolucionItem) error {
	if p.EstaCerrado() {
		return apperror.NewInvalidStateError("El préstamo ya está cerrado")
	}
	if len(devoluciones) == 0 {
		return apperror.NewValidationError("Debe incluir al menos un ítem en la devolución")
	}

	// Primera pasada: validar todo.
	for _, dev := range devoluciones {
		item := p.buscarItem(dev.ID)
		if item == nil {
			return apperror.NewValidationError(fmt.Sprintf("El ítem con ID %d no pertenece a este préstamo", dev.ID))
		}
		if dev.CantidadDevuelta < 0 {
			return apperror.NewValidationError(fmt.Sprintf("La cantidad devuelta no puede ser negativa para el ítem %s", item.Nombre))
		}
		if dev.CantidadDevuelta > item.CantidadPrestada {
			return apperror.NewValidationError(fmt.Sprintf("La cantidad devuelta no puede ser mayor a la prestada para el ítem %s", item.Nombre))
		}
	}

	// Segunda pasada: aplicar.
	for _, dev := range devoluciones {
		p.buscarItem(dev.ID).CantidadDevuelta = dev.CantidadDevuelta
	}

	return nil
}

// PuedeCerrar indica si todos los ítems tienen devolución completa.
func (p *Prestamo) PuedeCerrar() bool {
	if p.EstaCerrado() {
		return false
	}
	for _, item := range p.Items {
		if !item.DevolucionCompleta() {
			return false
		}
	}
	return true
}

// ItemsPendientes lista los ítems con devolución incompleta y su faltante.
func (p *Prestamo) ItemsPendientes() []apperror.ItemPendiente {
	var pendientes []apperror.ItemPendiente
	for _, item := range p.Items {
		if !item.DevolucionCompleta() {
			pendientes = append(pendientes, apperror.ItemPendiente{
				ID:        item.ID,
				Nombre:    item.Nombre,
				Pendiente: item.Pendiente(),
			})
		}
	}
	return pendientes
}

// Cerrar transiciona el préstamo a completado, exigiendo devolución completa
// de todos los ítems. La transición es terminal y ocurre una única vez.
func (p *Prestamo) Cerrar(ahora time.Time) error {
	if p.EstaCerrado() {
		return apperror.NewInvalidStateError("El préstamo ya está cerrado")
	}
	if !p.PuedeCerrar() {
		return apperror.NewDevolucionIncompletaError(p.ItemsPendientes())
	}
	p.Estado = EstadoCompletado
	p.FechaDevolucionFinal = &ahora
	return nil
}

// --- Tipos de reporte ---

// ItemPendienteReporte es una línea del reporte de morosos: un ítem con
// devolución incompleta junto a la fecha del préstamo que lo originó.
type ItemPendienteReporte struct {
	ID                int64     `json:"id"`
	Nombre            string    `json:"nombre"`
	CantidadPrestada  int       `json:"cantidadPrestada"`
	CantidadDevuelta  int       `json:"cantidadDevuelta"`
	Pendiente         int       `json:"pendiente"`
	ComentarioDetalle string    `json:"comentarioDetalle"`
	FechaPrestamo     time.Time `json:"fechaPrestamo"`
}

// FilaMoroso es una fila plana del query de morosos, antes de agrupar.
type FilaMoroso struct {
	Trabajador TrabajadorResumen
	Item       ItemPendienteReporte
}

// ReporteMoroso agrupa por trabajador los ítems pendientes de devolución.
type ReporteMoroso struct {
	ID                      int64                  `json:"id"`
	Trabajador              TrabajadorResumen      `json:"trabajador"`
	ItemsPendientes         []ItemPendienteReporte `json:"itemsPendientes"`
	TotalPendiente          int                    `json:"totalPendiente"`
	FechaPrestamoMasAntiguo time.Time              `json:"fechaPrestamoMasAntiguo"`
}

// ConteoEstado es la cantidad de préstamos en un estado dado.
type ConteoEstado struct {
	Estado EstadoPrestamo `json:"estado"`
	Total  int            `json:"total"`
}

/// ResumenAbiertos resume los préstamos abiertos: total y los más antiguos.
type ResumenAbiertos struct {
	Total    int        `json:"total"`
	Detalles []Prestamo `json:"detalles"`
}

// TotalesItems acumula las cantidades prestadas y devueltas del período.
type TotalesItems struct {
	Prestados  int `json:"prestados"`
	Devueltos  int `json:"devueltos"`
	Pendientes int `json:"pendientes"`
}

// RangoFechas hace eco del rango consultado.
type RangoFechas struct {
	FechaInicio string `json:"fechaInicio"`
	FechaFin    string `json:"fechaFin"`
}

// EstadisticasPrestamos agrega los indicadores del subsistema de préstamos.
type EstadisticasPrestamos struct {
	ConteoPorEstado   []ConteoEstado  `json:"conteoPorEstado"`
	PrestamosAbiertos ResumenAbiertos `json:"prestamosAbiertos"`
	TotalItems        TotalesItems    `json:"totalItems"`
	RangoFechas       RangoFechas     `json:"rangoFechas"`
}
