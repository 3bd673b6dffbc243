package prestamoservice

import (
	"context"
	"fmt"
	"time"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
)

// PrestamoRepository define el contrato que el servicio de préstamos espera
// de la capa de persistencia.
type PrestamoRepository interface {
	Crear(ctx context.Context, nuevo domain.NuevoPrestamo) (domain.Prestamo, error)
	FindByID(ctx context.Context, id int64) (domain.Prestamo, error)
	FindAll(ctx context.Context, filtro domain.PrestamoFiltro) ([]domain.Prestamo, error)
	FindByTrabajador(ctx context.Context, trabajadorID int64, estado domain.EstadoPrestamo) ([]domain.Prestamo, error)
	ActualizarDevolucion(ctx context.Context, id int64, devoluciones []domain.DevolucionItem, cerrar bool) (domain.Prestamo, error)
	Morosos(ctx context.Context) ([]domain.FilaMoroso, error)
	Estadisticas(ctx context.Context, fechaInicio, fechaFin *time.Time) (domain.EstadisticasPrestamos, error)
}

// Mensajes de confirmación de la operación de devolución.
const (
	MensajeDevolucionRegistrada = "Devolución registrada correctamente"
	MensajePrestamoCerrado      = "Préstamo cerrado correctamente"
)

// Service orquesta las operaciones sobre préstamos de herramientas.
type Service struct {
	repo       PrestamoRepository
	diasAtraso int
	logger     logger.Logger
}

// NewService crea el servicio de préstamos. diasAtraso controla a partir de
// cuántos días un préstamo abierto se reporta como atrasado.
func NewService(repo PrestamoRepository, diasAtraso int, logger logger.Logger) *Service {
	return &Service{repo: repo, diasAtraso: diasAtraso, logger: logger}
}

// CrearPrestamo valida y registra un préstamo nuevo con sus ítems.
func (s *Service) CrearPrestamo(ctx context.Context, nuevo domain.NuevoPrestamo) (domain.Prestamo, error) {
	if nuevo.TrabajadorID < 1 {
		return domain.Prestamo{}, apperror.NewValidationError("El trabajadorId es obligatorio")
	}
	if len(nuevo.Items) == 0 {
		return domain.Prestamo{}, apperror.NewValidationError("Debe incluir al menos un ítem en el préstamo")
	}
	for i, item := range nuevo.Items {
		if item.Nombre == "" {
			return domain.Prestamo{}, apperror.NewValidationError(fmt.Sprintf("El ítem %d debe tener nombre", i+1))
		}
		if item.CantidadPrestada < 1 {
			return domain.Prestamo{}, apperror.NewValidationError(fmt.Sprintf("La cantidad prestada del ítem %q debe ser mayor a cero", item.Nombre))
		}
	}

	prestamo, err := s.repo.Crear(ctx, nuevo)
	if err != nil {
		return domain.Prestamo{}, err
	}

	s.logger.Info("Préstamo creado", map[string]interface{}{
		"prestamo_id":   prestamo.ID,
		"trabajador_id": prestamo.TrabajadorID,
		"items":         len(prestamo.Items),
	})
	return prestamo, nil
}

// ObtenerPrestamos lista los préstamos que cumplen el filtro.
func (s *Service) ObtenerPrestamos(ctx context.Context, filtro domain.PrestamoFiltro) ([]domain.Prestamo, error) {
	if filtro.Estado != "" && !filtro.Estado.EsValido() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Estado no válido: %s", filtro.Estado))
	}
	prestamos, err := s.repo.FindAll(ctx, filtro)
	if err != nil {
		return nil, err
	}
	domain.MarcarAtrasados(prestamos, time.Now().UTC(), s.diasAtraso)
	return prestamos, nil
}

// ObtenerPrestamoPorID recupera un préstamo con sus ítems y su trabajador.
func (s *Service) ObtenerPrestamoPorID(ctx context.Context, id int64) (domain.Prestamo, error) {
	if id < 1 {
		return domain.Prestamo{}, apperror.NewValidationError("El ID del préstamo debe ser un número positivo")
	}
	prestamo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Prestamo{}, err
	}
	prestamo.Estado = prestamo.EstadoEfectivo(time.Now().UTC(), s.diasAtraso)
	return prestamo, nil
}

// ObtenerPrestamosTrabajador lista los préstamos de un trabajador, con filtro
// opcional por estado. Incluye trabajadores desactivados.
func (s *Service) ObtenerPrestamosTrabajador(ctx context.Context, trabajadorID int64, estado domain.EstadoPrestamo) ([]domain.Prestamo, error) {
	if trabajadorID < 1 {
		return nil, apperror.NewValidationError("El ID del trabajador debe ser un número positivo")
	}
	if estado != "" && !estado.EsValido() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Estado no válido: %s", estado))
	}
	prestamos, err := s.repo.FindByTrabajador(ctx, trabajadorID, estado)
	if err != nil {
		return nil, err
	}
	domain.MarcarAtrasados(prestamos, time.Now().UTC(), s.diasAtraso)
	return prestamos, nil
}

// ActualizarDevolucion registra devoluciones parciales o totales y, si se
// solicita, cierra el préstamo. Devuelve el préstamo actualizado y el mensaje
// de confirmación correspondiente.
func (s *Service) ActualizarDevolucion(ctx context.Context, id int64, devoluciones []domain.DevolucionItem, cerrar bool) (domain.Prestamo, string, error) {
	if id < 1 {
		return domain.Prestamo{}, "", apperror.NewValidationError("El ID del préstamo debe ser un número positivo")
	}
	if len(devoluciones) == 0 {
		return domain.Prestamo{}, "", apperror.NewValidationError("Debe incluir al menos un ítem en la devolución")
	}

	prestamo, err := s.repo.ActualizarDevolucion(ctx, id, devoluciones, cerrar)
	if err != nil {
		return domain.Prestamo{}, "", err
	}

	mensaje := MensajeDevolucionRegistrada
	if cerrar {
		mensaje = MensajePrestamoCerrado
	}
	s.logger.Info("Devolución procesada", map[string]interface{}{
		"prestamo_id": prestamo.ID,
		"cerrado":     cerrar,
		"items":       len(devoluciones),
	})
	return prestamo, mensaje, nil
}

// ReporteMorosos agrupa por trabajador los ítems aún no devueltos de los
// préstamos abiertos. Las filas llegan ordenadas por trabajador y fecha de
// entrega ascendente, así que el primer ítem de cada grupo fija la fecha del
// préstamo más antiguo.
func (s *Service) ReporteMorosos(ctx context.Context) ([]domain.ReporteMoroso, error) {
	filas, err := s.repo.Morosos(ctx)
	if err != nil {
		return nil, err
	}

	reporte := make([]domain.ReporteMoroso, 0)
	indicePorTrabajador := make(map[int64]int)
	for _, fila := range filas {
		idx, visto := indicePorTrabajador[fila.Trabajador.ID]
		if !visto {
			idx = len(reporte)
			indicePorTrabajador[fila.Trabajador.ID] = idx
			reporte = append(reporte, domain.ReporteMoroso{
				ID:                      fila.Trabajador.ID,
				Trabajador:              fila.Trabajador,
				ItemsPendientes:         []domain.ItemPendienteReporte{},
				FechaPrestamoMasAntiguo: fila.Item.FechaPrestamo,
			})
		}
		reporte[idx].ItemsPendientes = append(reporte[idx].ItemsPendientes, fila.Item)
		reporte[idx].TotalPendiente += fila.Item.Pendiente
	}
	return reporte, nil
}

// Estadisticas agrega conteos por estado, préstamos abiertos más antiguos y
// totales de ítems dentro del rango de fechas opcional.
func (s *Service) Estadisticas(ctx context.Context, fechaInicio, fechaFin *time.Time) (domain.EstadisticasPrestamos, error) {
	stats, err := s.repo.Estadisticas(ctx, fechaInicio, fechaFin)
	if err != nil {
		return domain.EstadisticasPrestamos{}, err
	}
	if fechaInicio != nil {
		stats.RangoFechas.FechaInicio = fechaInicio.Format("2006-01-02")
	}
	if fechaFin != nil {
		stats.RangoFechas.FechaFin = fechaFin.Format("2006-01-02")
	}
	return stats, nil
}
